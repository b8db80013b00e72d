package server

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"periph.io/x/conn/v3/physic"

	"bqlink/internal/bq40z50"
)

type GaugeClient interface {
	GetStatus() (*bq40z50.Status, error)
	Shutdown() error
}

type BatteryResponse struct {
	Connected          bool    `json:"sensor.connected"`
	Level              int     `json:"sensor.battery_level"`
	Voltage            float64 `json:"sensor.battery_voltage"`
	Current            int     `json:"sensor.battery_current"`
	Temperature        float64 `json:"sensor.battery_temperature"`
	State              string  `json:"sensor.battery_state"`
	IsCharging         bool    `json:"sensor.is_charging"`
	RemainingCapacity  int     `json:"sensor.remaining_capacity"`
	FullChargeCapacity int     `json:"sensor.full_charge_capacity"`
	CycleCount         int     `json:"sensor.cycle_count"`
	SerialNumber       int     `json:"sensor.serial_number"`
	Error              string  `json:"error,omitempty"`
}

type Server struct {
	gauge  GaugeClient
	logger *slog.Logger
}

func New(gauge GaugeClient, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{gauge: gauge, logger: logger}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /", s.rootHandler)
	mux.HandleFunc("POST /shutdown", s.shutdownHandler)
	return mux
}

func Run(port int, s *Server) error {
	addr := fmt.Sprintf(":%d", port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	s.logger.Info("listening", "addr", addr)
	return srv.ListenAndServe()
}

func (s *Server) rootHandler(w http.ResponseWriter, r *http.Request) {
	// A failed read still answers 200; the client sees connected=false.
	resp := BatteryResponse{State: "Unknown"}

	if s.gauge == nil {
		resp.Error = "no adapter"
		writeJSON(w, http.StatusOK, resp)
		return
	}

	st, err := s.gauge.GetStatus()
	if err != nil {
		s.logger.Warn("reading gauge failed", "err", err)
		resp.Error = err.Error()
		writeJSON(w, http.StatusOK, resp)
		return
	}

	resp.Connected = true
	resp.Level = st.RelativeSOCPct
	resp.Voltage = float64(st.Voltage) / float64(physic.Volt)
	resp.Current = int(st.Current / physic.MilliAmpere)
	resp.Temperature = float64(st.Temperature-physic.ZeroCelsius) / float64(physic.Kelvin)
	resp.RemainingCapacity = st.RemainingMAh
	resp.FullChargeCapacity = st.FullChargeMAh
	resp.CycleCount = st.CycleCount
	resp.SerialNumber = st.SerialNumber

	switch {
	case st.Current > 0:
		resp.State = "Charging"
	case st.Current < 0:
		resp.State = "Discharging"
	case st.RelativeSOCPct >= 100:
		resp.State = "Full"
	default:
		resp.State = "Not Charging"
	}
	resp.IsCharging = (resp.State == "Charging")

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) shutdownHandler(w http.ResponseWriter, r *http.Request) {
	if s.gauge == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "no adapter"})
		return
	}
	if err := s.gauge.Shutdown(); err != nil {
		s.logger.Error("gauge shutdown failed", "err", err)
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": err.Error()})
		return
	}
	s.logger.Info("gauge shutdown sent")
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}
