// Copyright 2021 dustinxie
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package splitmetrics exposes a splitlist.Table's size and resize
// behavior as Prometheus metrics, for callers who already scrape a
// /metrics endpoint and want table health alongside everything else.
package splitmetrics

import "github.com/prometheus/client_golang/prometheus"

// Table is the subset of splitlist.Table that Collector needs. Avoiding a
// direct import of the splitlist package keeps this package reusable (and
// keeps splitlist itself free of a Prometheus dependency for callers who
// don't want one). splitlist.Table satisfies this interface as-is.
type Table interface {
	Len() int
	Width() uint32
	Resizes() uint32
}

// Collector reports a table's live element count, current directory
// width, and cumulative number of directory doublings. It satisfies
// prometheus.Collector and reads every value straight off the table's own
// atomics at scrape time, so it never drifts from the table it wraps.
type Collector struct {
	table Table

	elements *prometheus.Desc
	width    *prometheus.Desc
	resizes  *prometheus.Desc
}

// NewCollector builds a Collector over table, labeling every series with
// name (so a process hosting more than one table can tell them apart).
func NewCollector(name string, table Table) *Collector {
	constLabels := prometheus.Labels{"table": name}
	return &Collector{
		table: table,
		elements: prometheus.NewDesc(
			"splitlist_table_elements",
			"Number of live elements currently stored in the table.",
			nil, constLabels,
		),
		width: prometheus.NewDesc(
			"splitlist_table_width",
			"log2 of the table's current directory size.",
			nil, constLabels,
		),
		resizes: prometheus.NewDesc(
			"splitlist_table_resizes_total",
			"Number of directory doublings the table has undergone.",
			nil, constLabels,
		),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.elements
	ch <- c.width
	ch <- c.resizes
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	ch <- prometheus.MustNewConstMetric(c.elements, prometheus.GaugeValue, float64(c.table.Len()))
	ch <- prometheus.MustNewConstMetric(c.width, prometheus.GaugeValue, float64(c.table.Width()))
	ch <- prometheus.MustNewConstMetric(c.resizes, prometheus.CounterValue, float64(c.table.Resizes()))
}
