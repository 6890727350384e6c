// Package server contains misc HTTP utilities shared by the calibration
// service.
package server

import (
	"encoding/json"
	"fmt"
	"go/types"
	"log"
	"net/http"
	"os"
	"path/filepath"
)

// HumanPayload is a struct that enables python-like (human readable) JSON
// replies carrying a single typed value.
type HumanPayload struct {
	// T holds the type of data actually contained
	T types.BasicKind

	// Bool holds a boolean
	Bool bool

	// Int holds an int
	Int int

	// Float holds a float64
	Float float64

	// String holds a string
	String string
}

// EncodeAndRespond writes the payload to w as JSON with the appropriate
// single-key body, {'f64': ...} and so forth.
func (hp *HumanPayload) EncodeAndRespond(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	var err error
	switch hp.T {
	case types.Bool:
		err = json.NewEncoder(w).Encode(BoolT{Bool: hp.Bool})
	case types.Int:
		err = json.NewEncoder(w).Encode(IntT{Int: hp.Int})
	case types.Float64:
		err = json.NewEncoder(w).Encode(FloatT{F64: hp.Float})
	case types.String:
		err = json.NewEncoder(w).Encode(StrT{Str: hp.String})
	default:
		err = fmt.Errorf("unknown payload type %v", hp.T)
	}
	if err != nil {
		fstr := fmt.Sprintf("error encoding payload to json %q", err)
		log.Println(fstr)
		http.Error(w, fstr, http.StatusInternalServerError)
	}
}

// FloatT is a strongly typed float JSON body, {'f64': value}
type FloatT struct {
	F64 float64 `json:"f64"`
}

// IntT is a strongly typed int JSON body, {'int': value}
type IntT struct {
	Int int `json:"int"`
}

// BoolT is a strongly typed bool JSON body, {'bool': value}
type BoolT struct {
	Bool bool `json:"bool"`
}

// StrT is a strongly typed string JSON body, {'str': value}
type StrT struct {
	Str string `json:"str"`
}

// ReplyWithFile replies to the client request by serving the given file
// name from fldr; the calibration service uses it to serve archive files.
func ReplyWithFile(w http.ResponseWriter, r *http.Request, fn string, fldr string) {
	filePath, err := filepath.Abs(filepath.Join(fldr, fn))
	if err != nil {
		fstr := fmt.Sprintf("unable to compute abspath of file %s %s %s", fldr, fn, err)
		log.Println(fstr)
		http.Error(w, fstr, http.StatusInternalServerError)
		return
	}

	f, err := os.Open(filePath)
	if err != nil {
		fstr := fmt.Sprintf("source file missing %s", filePath)
		log.Println(fstr)
		http.Error(w, fstr, http.StatusNotFound)
		return
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		fstr := fmt.Sprintf("error retrieving source file stats %s", err)
		log.Println(fstr)
		http.Error(w, fstr, http.StatusNotFound)
		return
	}
	// read some stuff to set the headers appropriately
	http.ServeContent(w, r, fn, stat.ModTime(), f)
}
