package cmd

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/routegate-ai/routegate/api"
	"github.com/routegate-ai/routegate/internal/proposer"
	"github.com/routegate-ai/routegate/internal/route"
	"github.com/routegate-ai/routegate/internal/tools"
)

func newServeCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the pipeline over HTTP",
		Long:  "Exposes POST /v1/route, POST /v1/execute, and GET /v1/audit as a\nJSON API. Actor identity comes from the request body; this front-end\ndoes no authentication of its own.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := initConfig()
			if addr != "" {
				cfg.Server.Addr = addr
			}
			a, err := buildApp(cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			mux := http.NewServeMux()
			mux.HandleFunc("POST /v1/route", a.handleRoute)
			mux.HandleFunc("POST /v1/execute", a.handleExecute)
			mux.HandleFunc("GET /v1/audit", a.handleAudit)

			log.Printf("routegate listening on %s", cfg.Server.Addr)
			return http.ListenAndServe(cfg.Server.Addr, mux)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, :8080)")
	return cmd
}

func (a *app) handleRoute(w http.ResponseWriter, r *http.Request) {
	var req api.RouteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.Role == "" || req.Text == "" {
		writeError(w, http.StatusBadRequest, errors.New("role and text are required"))
		return
	}

	resp, err := a.pipeline.Handle(r.Context(), route.Request{
		UserID:    req.UserID,
		Role:      req.Role,
		Text:      req.Text,
		TicketRef: req.TicketRef,
	}, req.Act)
	if err != nil {
		// A proposer failure is an upstream fault, not ours; no policy
		// check happened and nothing was authorized.
		status := http.StatusInternalServerError
		var perr *proposer.Error
		if errors.As(err, &perr) {
			status = http.StatusBadGateway
		}
		writeError(w, status, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (a *app) handleExecute(w http.ResponseWriter, r *http.Request) {
	var req api.ExecuteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.Role == "" || req.Tool == "" {
		writeError(w, http.StatusBadRequest, errors.New("role and tool are required"))
		return
	}

	reqCtx := map[string]string{"user_id": req.UserID}
	if req.TicketRef != "" {
		reqCtx["ticket_ref"] = req.TicketRef
	}

	res, err := a.gate.Execute(r.Context(), req.Role, req.Tool, req.Args, reqCtx)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, tools.ErrUnknownTool) {
			status = http.StatusNotFound
		}
		writeError(w, status, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (a *app) handleAudit(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, errors.New("limit must be a positive integer"))
			return
		}
		limit = n
	}

	recs, err := a.sink.TailLatest(limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, recs)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, api.ErrorResponse{Error: err.Error()})
}
