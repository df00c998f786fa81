package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/oggmux/oggmux/pkg/mux"
	"github.com/oggmux/oggmux/pkg/scan"
	"github.com/oggmux/oggmux/pkg/stream"
)

// Server holds the API server state
type Server struct {
	config  ServerConfig
	metrics *Metrics
}

// NewServer creates a new API server
func NewServer(config ServerConfig, metrics *Metrics) *Server {
	return &Server{
		config:  config,
		metrics: metrics,
	}
}

// requireAPIKey gates a route group on the configured X-API-Key header.
func (s *Server) requireAPIKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch key := r.Header.Get("X-API-Key"); {
		case key == "":
			s.reject(w, http.StatusUnauthorized, "missing X-API-Key header")
		case key != s.config.APIKey:
			s.reject(w, http.StatusUnauthorized, "invalid API key")
		default:
			next.ServeHTTP(w, r)
		}
	})
}

// reply wraps data in the success envelope.
func (s *Server) reply(w http.ResponseWriter, data interface{}) {
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: data})
}

// reject wraps an error message in the failure envelope.
func (s *Server) reject(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, APIResponse{Success: false, Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, resp APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

// handleHealth reports service liveness.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.reply(w, map[string]string{"status": "healthy"})
}

// handleInspect scans a raw stream posted in the request body and
// returns a per-page report plus recovery statistics.
func (s *Server) handleInspect(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	data, err := readStreamBody(w, r, s.config.MaxBodyBytes)
	if err != nil {
		s.reject(w, http.StatusRequestEntityTooLarge, err.Error())
		return
	}
	if len(data) == 0 {
		s.reject(w, http.StatusBadRequest, "Request body is required")
		return
	}

	sc := scan.NewScanner()
	sc.Feed(data)

	resp := InspectResponse{Pages: []PageReport{}, Streams: []uint32{}}
	decoders := map[uint32]*stream.Decoder{}
	var packets int64

	for {
		page := sc.NextPage()
		if page == nil {
			break
		}
		resp.Pages = append(resp.Pages, PageReport{
			Offset:       sc.LastPageOffset(),
			SerialNumber: page.SerialNumber,
			PageSequence: page.PageSequence,
			GranulePos:   page.GranulePos,
			Continued:    page.Continued(),
			BOS:          page.BOS(),
			EOS:          page.EOS(),
			Segments:     len(page.Segments),
			BodyBytes:    len(page.Body),
		})

		dec, known := decoders[page.SerialNumber]
		if !known {
			dec = stream.NewDecoder(page.SerialNumber)
			decoders[page.SerialNumber] = dec
			resp.Streams = append(resp.Streams, page.SerialNumber)
		}

		err := dec.PageIn(page)
		var gap *stream.GapError
		switch {
		case errors.As(err, &gap):
			resp.Gaps = append(resp.Gaps, GapReport{
				SerialNumber: gap.Serial,
				Expected:     gap.Expected,
				Observed:     gap.Observed,
			})
		case errors.Is(err, stream.ErrStreamClosed):
			// Chained streams reuse a serial after EOS; start over.
			dec.Reset(page.SerialNumber)
			switch err := dec.PageIn(page); {
			case err == nil:
			case errors.As(err, &gap):
				resp.Gaps = append(resp.Gaps, GapReport{
					SerialNumber: gap.Serial,
					Expected:     gap.Expected,
					Observed:     gap.Observed,
				})
			default:
				continue
			}
		}
		for dec.PacketOut() != nil {
			packets++
		}
	}
	resp.BytesSkipped = sc.BytesSkipped()

	s.metrics.RecordScan(sc.PagesRead(), packets, resp.BytesSkipped, int64(len(resp.Gaps)), time.Since(start))
	s.reply(w, resp)
}

// handleRemux re-paginates a raw stream: every recoverable packet is
// decoded and written back out on fresh pages with clean sequence
// numbering, discarding garbage and torn packets.
func (s *Server) handleRemux(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	data, err := readStreamBody(w, r, s.config.MaxBodyBytes)
	if err != nil {
		s.reject(w, http.StatusRequestEntityTooLarge, err.Error())
		return
	}
	if len(data) == 0 {
		s.reject(w, http.StatusBadRequest, "Request body is required")
		return
	}

	out, stats, err := mux.Remux(data)
	if err != nil {
		s.reject(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	s.metrics.RecordScan(stats.PagesRead, stats.Packets, stats.BytesSkipped, stats.Gaps, time.Since(start))
	w.Header().Set("Content-Type", "application/ogg")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(out)
}

// readStreamBody reads the full request body, enforcing the configured
// size cap.
func readStreamBody(w http.ResponseWriter, r *http.Request, maxBytes int64) ([]byte, error) {
	if maxBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	}
	data, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, errors.New("request body exceeds size limit")
	}
	return data, nil
}
