package httpapi

import "net/http"

// NewMux wires every handler; main wraps it with the middleware chain.
func NewMux(d Deps) *http.ServeMux {
	mux := http.NewServeMux()

	// Capture (extension snapshot ingestion)
	ch := CaptureHandler{Ingestor: d.Ingestor, Hub: d.Hub, UserID: d.UserID}
	mux.HandleFunc("/capture", methodMux(map[string]http.HandlerFunc{
		http.MethodPost: ch.Run,
	}))

	// Applications
	ah := ApplicationsHandler{Gateway: d.Gateway, Ingestor: d.Ingestor, Hub: d.Hub, UserID: d.UserID}
	mux.HandleFunc("/applications", methodMux(map[string]http.HandlerFunc{
		http.MethodGet:  ah.List,
		http.MethodPost: ah.Create,
	}))

	// Email sync
	eh := EmailHandler{Poller: d.Poller, CfgVal: d.CfgVal}
	mux.HandleFunc("/email/sync", methodMux(map[string]http.HandlerFunc{
		http.MethodPost: eh.Sync,
	}))
	mux.HandleFunc("/email/status", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: eh.Status,
	}))

	// Config
	cfgh := ConfigHandler{CfgVal: d.CfgVal, UserCfgPath: d.UserCfgPath, LoadCfg: d.LoadCfg}
	mux.HandleFunc("/config", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: cfgh.Get,
		http.MethodPut: cfgh.Put,
	}))
	mux.HandleFunc("/config/path", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: cfgh.Path,
	}))

	// Secrets
	sh := SecretsHandler{CfgVal: d.CfgVal}
	mux.HandleFunc("/api/secrets/imap", methodMux(map[string]http.HandlerFunc{
		http.MethodPost: sh.SetIMAPPassword,
	}))

	// SSE events
	evh := EventsHandler{Hub: d.Hub}
	mux.HandleFunc("/events", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: evh.ServeSSE,
	}))

	mux.HandleFunc("/health", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: HealthHandler{}.Health,
	}))

	return mux
}
