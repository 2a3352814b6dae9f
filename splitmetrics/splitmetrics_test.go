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

package splitmetrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

type fakeTable struct {
	length  int
	width   uint32
	resizes uint32
}

func (f fakeTable) Len() int        { return f.length }
func (f fakeTable) Width() uint32   { return f.width }
func (f fakeTable) Resizes() uint32 { return f.resizes }

func TestCollectorReportsLiveValues(t *testing.T) {
	req := require.New(t)

	tbl := fakeTable{length: 42, width: 6, resizes: 4}
	c := NewCollector("orders", tbl)

	reg := prometheus.NewRegistry()
	req.NoError(reg.Register(c))

	families, err := reg.Gather()
	req.NoError(err)

	values := map[string]float64{}
	for _, fam := range families {
		for _, m := range fam.GetMetric() {
			var v float64
			switch {
			case m.GetGauge() != nil:
				v = m.GetGauge().GetValue()
			case m.GetCounter() != nil:
				v = m.GetCounter().GetValue()
			}
			values[fam.GetName()] = v
		}
	}

	req.Equal(float64(42), values["splitlist_table_elements"])
	req.Equal(float64(6), values["splitlist_table_width"])
	req.Equal(float64(4), values["splitlist_table_resizes_total"])
}
