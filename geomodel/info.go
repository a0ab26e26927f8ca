package geomodel

import (
	"github.com/mailru/easyjson"
	"github.com/mailru/easyjson/jwriter"
)

type Info struct {
	Name        string `json:"name"`
	Street      string `json:"street"`
	HouseNumber string `json:"house_number"`
	City        string `json:"city"`
	Region      string `json:"region"`
}

func (i Info) IsZero() bool {
	return i == Info{}
}

// MarshalEasyJSON writes i in the same shape encoding/json produces.
func (i Info) MarshalEasyJSON(w *jwriter.Writer) {
	w.RawString(`{"name":`)
	w.String(i.Name)
	w.RawString(`,"street":`)
	w.String(i.Street)
	w.RawString(`,"house_number":`)
	w.String(i.HouseNumber)
	w.RawString(`,"city":`)
	w.String(i.City)
	w.RawString(`,"region":`)
	w.String(i.Region)
	w.RawByte('}')
}

func (i Info) MarshalJSON() ([]byte, error) {
	return easyjson.Marshal(i)
}

type InfoList []Info

func (l InfoList) MarshalEasyJSON(w *jwriter.Writer) {
	if l == nil {
		w.RawString("[]")
		return
	}
	w.RawByte('[')
	for n, i := range l {
		if n > 0 {
			w.RawByte(',')
		}
		i.MarshalEasyJSON(w)
	}
	w.RawByte(']')
}

func (l InfoList) MarshalJSON() ([]byte, error) {
	return easyjson.Marshal(l)
}

var (
	_ easyjson.Marshaler = Info{}
	_ easyjson.Marshaler = InfoList{}
)
