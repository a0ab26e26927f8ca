package server

import (
	"encoding/json"
	"slices"
	"testing"
)

func TestParsePointsList(t *testing.T) {
	tests := []struct {
		data []byte
		want [][2]float64
	}{
		{[]byte(`[]`), [][2]float64{}},
		{[]byte(` [ ] `), [][2]float64{}},
		{[]byte(`[[1, 2]]`), [][2]float64{{1, 2}}},
		{[]byte(`[[1,2], [3,4]]`), [][2]float64{{1, 2}, {3, 4}}},
		{[]byte(`[[1,2.1], [3,4]]`), [][2]float64{{1, 2.1}, {3, 4}}},
		{[]byte(`[[-1.4, -1],[-0, 1]]`), [][2]float64{{-1.4, -1}, {0, 1}}},
		{[]byte("[\n\t[1.4e1, 0.1E-1],\r\n [3.1, -1e+2]\n]"), [][2]float64{{14, 0.01}, {3.1, -100}}},
	}

	for _, tt := range tests {
		res := [][2]float64{}
		err := parsePointsList(tt.data, &res)
		if err != nil {
			t.Fatalf("unexpected error for %s: %s", tt.data, err.Error())
		}

		if !slices.Equal(tt.want, res) {
			t.Fatalf("result expected %v; got %v", tt.want, res)
		}
	}
}

func TestParsePointsListInvalid(t *testing.T) {
	for _, data := range []string{
		``,
		`{}`,
		`[[1]]`,
		`[[1,2,3]]`,
		`[[1,2],]`,
		`[[1,2]] x`,
		`[[01,2]]`,
		`[[1.,2]]`,
		`[[.5,2]]`,
		`[[+1,2]]`,
		`[[1e,2]]`,
		`[[1e999,2]]`,
		`[[NaN,2]]`,
		`[[a, -0],[0, 2]]`,
	} {
		var res [][2]float64
		if err := parsePointsList([]byte(data), &res); err == nil {
			t.Errorf("expected error for %q, got %v", data, res)
		}
	}
}

func FuzzParsePointsList(f *testing.F) {
	f.Add([]byte(`[]`))
	f.Add([]byte(`[[1,2]]`))
	f.Add([]byte(`[[1,2],[3,4]]`))
	f.Add([]byte(`[[1,2.1],[3]]`))
	f.Add([]byte(`[[1,2.1],[3,4,5]]`))
	f.Add([]byte(`[[1.4],[3.1]]`))
	f.Add([]byte(`[[-1.4, -1],[-0, 1]]`))
	f.Add([]byte(`[[a, -0],[0, 2]]`))

	f.Fuzz(func(t *testing.T, data []byte) {
		var fastRes [][2]float64
		if err := parsePointsList(data, &fastRes); err != nil {
			return
		}

		var jsonRes [][2]float64
		if err := json.Unmarshal(data, &jsonRes); err != nil {
			t.Fatalf("accepted %q which encoding/json rejects: %s", data, err.Error())
		}
		if len(jsonRes) != len(fastRes) || (len(jsonRes) > 0 && !slices.Equal(jsonRes, fastRes)) {
			t.Fatalf("result expected %v; got %v", jsonRes, fastRes)
		}
	})
}
