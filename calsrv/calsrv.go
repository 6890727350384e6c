/*Package calsrv exposes the calibration engine over HTTP.

The server wraps one loaded cube at a time plus a calibration table cache.
Conversions replace the wrapped cube, so a client can walk the unit state
machine with a series of POSTs and fetch the result; the lock middleware
lets a client freeze the cube while it edits the dust mask.

This enables a server-client architecture: analysis environments in any
language can drive the conversions with their HTTP library of choice
instead of reimplementing the calibration.
*/
package calsrv

import (
	"encoding/json"
	"go/types"
	"net/http"
	"strconv"
	"sync"

	"goji.io"
	"goji.io/pat"

	"github.jpl.nasa.gov/bdube/goiris/cube"
	"github.jpl.nasa.gov/bdube/goiris/radiometry"
	"github.jpl.nasa.gov/bdube/goiris/response"
	"github.jpl.nasa.gov/bdube/goiris/server"
	"github.jpl.nasa.gov/bdube/goiris/server/middleware/locker"
	"github.jpl.nasa.gov/bdube/goiris/units"
)

// Server is the HTTP wrapper around a cube and a calibration table cache.
type Server struct {
	// Mux is the assembled route tree; mount it wherever.
	Mux *goji.Mux

	mu    sync.Mutex
	c     *cube.Cube
	cache *response.Cache
	lock  *locker.Locker
}

// New returns a server over the given cube and cache, with its routes and
// lock middleware assembled.
func New(c *cube.Cube, cache *response.Cache) *Server {
	s := &Server{c: c, cache: cache, lock: locker.New()}
	mux := goji.NewMux()
	mux.Use(s.lock.Check)
	locker.Inject(mux, s.lock)
	mux.HandleFunc(pat.Get("/unit"), s.GetUnit)
	mux.HandleFunc(pat.Get("/cube"), s.GetCube)
	mux.HandleFunc(pat.Post("/convert/counts"), s.ConvertCounts)
	mux.HandleFunc(pat.Post("/convert/exposure"), s.ExposureCorrection)
	mux.HandleFunc(pat.Post("/convert/radiance"), s.ToRadiance)
	mux.HandleFunc(pat.Get("/dust-mask"), s.GetDustMasked)
	mux.HandleFunc(pat.Post("/dust-mask"), s.SetDustMask)
	mux.HandleFunc(pat.Get("/response/effective-area"), s.EffectiveArea)
	mux.HandleFunc(pat.Get("/response/archive"), s.Archive)
	s.Mux = mux
	return s
}

// GetUnit returns the cube's current unit label as JSON
func (s *Server) GetUnit(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	u := s.c.Unit.String()
	s.mu.Unlock()
	hp := server.HumanPayload{T: types.String, String: u}
	hp.EncodeAndRespond(w, r)
}

// cubeJSON is the wire form of a cube.
type cubeJSON struct {
	Shape       []int                  `json:"shape"`
	Unit        string                 `json:"unit"`
	Data        []float64              `json:"data"`
	Uncertainty []float64              `json:"uncertainty,omitempty"`
	DustMasked  bool                   `json:"dustMasked"`
	Meta        map[string]interface{} `json:"meta"`
}

// GetCube returns the full cube contents as JSON
func (s *Server) GetCube(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	c := s.c
	s.mu.Unlock()
	out := cubeJSON{
		Shape:      c.Data.Shape,
		Unit:       c.Unit.String(),
		Data:       c.Data.Data,
		DustMasked: c.DustMasked,
		Meta:       c.Meta,
	}
	if c.Uncertainty != nil {
		out.Uncertainty = c.Uncertainty.Data
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(out); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// ConvertCounts converts the cube between DN and photon units.  Body is
// {'str': <unit label>}.
func (s *Server) ConvertCounts(w http.ResponseWriter, r *http.Request) {
	str := server.StrT{}
	err := json.NewDecoder(r.Body).Decode(&str)
	defer r.Body.Close()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	target, err := units.Parse(str.Str)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	nc, err := s.c.ConvertCounts(target)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.c = nc
	w.WriteHeader(http.StatusOK)
}

// Archive serves the raw calibration archive file for a version; query
// parameter version.
func (s *Server) Archive(w http.ResponseWriter, r *http.Request) {
	version, err := strconv.Atoi(r.URL.Query().Get("version"))
	if err != nil {
		http.Error(w, "bad or missing version", http.StatusBadRequest)
		return
	}
	fn, err := response.VersionFile(version)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	server.ReplyWithFile(w, r, fn, s.cache.Dir)
}

// exposureReq is the body for ExposureCorrection.
type exposureReq struct {
	Undo  bool `json:"undo"`
	Force bool `json:"force"`
}

// ExposureCorrection applies or undoes the exposure time correction.
func (s *Server) ExposureCorrection(w http.ResponseWriter, r *http.Request) {
	req := exposureReq{}
	err := json.NewDecoder(r.Body).Decode(&req)
	defer r.Body.Close()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	nc, err := s.c.ApplyExposureTimeCorrection(req.Undo, req.Force)
	if err != nil {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}
	s.c = nc
	w.WriteHeader(http.StatusOK)
}

// radianceReq is the body for ToRadiance.
type radianceReq struct {
	Undo        bool      `json:"undo"`
	Version     int       `json:"version"`
	Segment     string    `json:"segment"`
	Wavelength  []float64 `json:"wavelength"`
	Dispersion  float64   `json:"dispersion"`
	SolidAngle  float64   `json:"solidAngle"`
	ObsTimeSecs float64   `json:"obsTime,omitempty"`
}

// ToRadiance converts the cube to (or from) physical radiance using the
// given calibration version and geometry.
func (s *Server) ToRadiance(w http.ResponseWriter, r *http.Request) {
	req := radianceReq{}
	err := json.NewDecoder(r.Body).Decode(&req)
	defer r.Body.Close()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	table, err := s.cache.Get(response.Options{Version: req.Version})
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	p := radiometry.RadianceParams{
		ObsTime:    req.ObsTimeSecs,
		Table:      table,
		Segment:    req.Segment,
		Wavelength: req.Wavelength,
		Dispersion: req.Dispersion,
		SolidAngle: req.SolidAngle,
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var nc *cube.Cube
	if req.Undo {
		nc, err = s.c.FromRadiance(p)
	} else {
		nc, err = s.c.ToRadiance(p)
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.c = nc
	w.WriteHeader(http.StatusOK)
}

// GetDustMasked returns whether dust positions are currently masked
func (s *Server) GetDustMasked(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	b := s.c.DustMasked
	s.mu.Unlock()
	hp := server.HumanPayload{T: types.Bool, Bool: b}
	hp.EncodeAndRespond(w, r)
}

// SetDustMask applies or undoes the dust mask in place.  Body is
// {'bool': apply}.
func (s *Server) SetDustMask(w http.ResponseWriter, r *http.Request) {
	b := server.BoolT{}
	err := json.NewDecoder(r.Body).Decode(&b)
	defer r.Body.Close()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.mu.Lock()
	s.c.ApplyDustMask(!b.Bool)
	s.mu.Unlock()
	w.WriteHeader(http.StatusOK)
}

// EffectiveArea evaluates a segment's effective area curve; query
// parameters version, segment, and time (utime seconds).
func (s *Server) EffectiveArea(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	version, err := strconv.Atoi(q.Get("version"))
	if err != nil {
		http.Error(w, "bad or missing version", http.StatusBadRequest)
		return
	}
	tObs, err := strconv.ParseFloat(q.Get("time"), 64)
	if err != nil {
		http.Error(w, "bad or missing time", http.StatusBadRequest)
		return
	}
	segment := q.Get("segment")
	table, err := s.cache.Get(response.Options{Version: version})
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	area, err := table.EffectiveArea(segment, tObs)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	out := struct {
		Wavelength []float64 `json:"wavelength"`
		Area       []float64 `json:"area"`
	}{Wavelength: table.Wavelength, Area: area}
	if err := json.NewEncoder(w).Encode(out); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
