package main

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"github.jpl.nasa.gov/bdube/goiris/calsrv"
	"github.jpl.nasa.gov/bdube/goiris/cube"
	"github.jpl.nasa.gov/bdube/goiris/level2"
	"github.jpl.nasa.gov/bdube/goiris/response"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
)

// ObjSetup holds the typical arguments for serving one observation.
type ObjSetup struct {
	// Path is the filesystem path of the level 2 FITS file to serve
	Path string `yaml:"Path"`

	// Endpoint is the full path the routes from this file will be served on
	// ex. Endpoint="/obs/sji1400" will produce routes of /obs/sji1400/unit, etc.
	Endpoint string `yaml:"Endpoint"`

	// Type is the kind of observation, e.g. "sji" or "raster"
	Type string `yaml:"Type"`

	// Window names the spectral window to serve for raster files.  Unused
	// for SJI files.
	Window string `yaml:"Window"`

	// Unscaled skips the header scaling; the cube comes up in unscaled DN
	Unscaled bool `yaml:"Unscaled"`
}

// Config is a struct that holds the initialization parameters for the served
// observations.  It is to be populated by a yaml/unmarshal call.
type Config struct {
	// Addr is the address to listen at
	Addr string `yaml:"Addr"`

	// CalDir is the directory holding the response calibration files
	CalDir string `yaml:"CalDir"`

	// Nodes is the list of nodes to set up
	Nodes []ObjSetup `yaml:"Nodes"`
}

// subMuxSanitize ensures a URL begins with a slash and ends with /*,
// "obs/sji" => "/obs/sji/*"
func subMuxSanitize(url string) string {
	if !strings.HasPrefix(url, "/") {
		url = "/" + url
	}
	if !strings.HasSuffix(url, "*") {
		if !strings.HasSuffix(url, "/") {
			url = url + "/"
		}
		url = url + "*"
	}
	return url
}

// BuildMux loads every node's file and uses them to construct a chi mux with
// populated calibration handlers.  The mux serves a special route, endpoints,
// which returns an array of the mounted URLs as JSON.
func BuildMux(c Config) chi.Router {
	// make the root handler
	root := chi.NewRouter()
	root.Use(middleware.Logger)
	cache := response.NewCache(c.CalDir)
	mounted := []string{}

	// for every node specified, build a submux
	for _, node := range c.Nodes {
		var (
			cub *cube.Cube
			err error
		)
		typ := strings.ToLower(node.Type)
		switch typ {
		case "sji":
			cub, err = level2.ReadSJI(node.Path, node.Unscaled)
			if err != nil {
				log.Fatal("reading ", node.Path, ": ", err)
			}

		case "raster", "spectrograph":
			if node.Window == "" {
				log.Fatal("node ", node.Endpoint, " is a raster but names no Window")
			}
			ras, err2 := level2.ReadSpectrograph(node.Path, []string{node.Window})
			if err2 != nil {
				log.Fatal("reading ", node.Path, ": ", err2)
			}
			cub = ras.Windows[node.Window]

		default:
			log.Fatal("type ", typ, " not understood")
		}

		// prepare the URL, "obs/sji" => "/obs/sji/*"
		hndlS := subMuxSanitize(node.Endpoint)
		mounted = append(mounted, hndlS)

		srv := calsrv.New(cub, cache)
		// the submux matches paths relative to its mount point
		stem := strings.TrimSuffix(hndlS, "/*")
		root.Mount(hndlS, http.StripPrefix(stem, srv.Mux))
	}
	if len(mounted) == 0 {
		log.Fatal("no nodes in the configuration, there is nothing to serve")
	}
	root.Get("/endpoints", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		err := json.NewEncoder(w).Encode(mounted)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	})
	return root
}
