package api

import (
	"encoding/json"
	"net/http"
	"time"

	"prophet/internal/cache"
	"prophet/internal/interpretation"
	"prophet/internal/metrics"
	"prophet/internal/ml"
	"prophet/internal/prediction"
	"prophet/pkg/errors"
	"prophet/pkg/logger"
)

const (
	endpointGroup   = "predict_group"
	endpointRevenue = "predict_revenue"
	endpointAll     = "predict_all"

	// invalidModelLabel replaces rejected selector values in metric labels
	// so user input never expands label cardinality.
	invalidModelLabel = "invalid"
)

// fieldTypes documents the expected JSON type per payload field for /api
var fieldTypes = map[string]string{
	"NetRevenue":           "float",
	"NetQuantity":          "float",
	"NumTransactions":      "int",
	"NumUniqueCustomers":   "int",
	"NetRevenue_LastMonth": "float",
	"NetRevenue_MA3":       "float",
	"Month":                "int",
	"ProductFrequency":     "int",
}

// Handler serves the prediction endpoints
type Handler struct {
	svc   *prediction.Service
	cache *cache.Cache // nil when caching is disabled
	log   *logger.Logger
}

// NewHandler creates the prediction endpoint handler
func NewHandler(svc *prediction.Service, responseCache *cache.Cache, log *logger.Logger) *Handler {
	return &Handler{
		svc:   svc,
		cache: responseCache,
		log:   log.With("component", "api"),
	}
}

type groupResponse struct {
	ModelUsed      string                 `json:"model_used"`
	PredictedGroup int                    `json:"predicted_group"`
	GroupInfo      interpretation.GroupInfo `json:"group_info"`
	InputData      map[string]interface{} `json:"input_data"`
}

type revenueResponse struct {
	ModelUsed        string                 `json:"model_used"`
	InputData        map[string]interface{} `json:"input_data"`
	NextMonthRevenue string                 `json:"next_month_revenue"`
}

type allResponse struct {
	ProductGroup      string                `json:"product_group"`
	Description       string                `json:"description"`
	RecommendedAction string                `json:"recommended_action"`
	NextMonthRevenue  string                `json:"next_month_revenue"`
	ModelsUsed        []string              `json:"models_used"`
	Debug             *prediction.DebugInfo `json:"debug,omitempty"`
}

// HandleHome redirects the root path to the interactive form
func (h *Handler) HandleHome(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	http.Redirect(w, r, "/ui", http.StatusFound)
}

// HandleAPIInfo describes the available endpoints and their payloads
func (h *Handler) HandleAPIInfo(w http.ResponseWriter, r *http.Request) {
	expect := func(fields []string) map[string]string {
		m := make(map[string]string, len(fields))
		for _, f := range fields {
			m[f] = fieldTypes[f]
		}
		return m
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Product Group & Revenue Prediction API is running.",
		"endpoints": map[string]interface{}{
			"POST /predict_group?model=kmeans|dbscan": map[string]interface{}{
				"expect_json": expect(h.svc.ClusterScaler().Fields),
			},
			"POST /predict_revenue?model=random_forest|xgboost": map[string]interface{}{
				"expect_json": expect(h.svc.RegressionScaler().Fields),
			},
			"POST /predict_all?group_model=kmeans|dbscan&rev_model=random_forest|xgboost": map[string]interface{}{
				"expect_json": expect(h.svc.AllFields()),
			},
		},
	})
}

// HandlePredictGroup predicts the product group with a clustering model
func (h *Handler) HandlePredictGroup(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	start := time.Now()
	model := queryOrDefault(r, "model", ml.ModelKMeans)
	if model != ml.ModelKMeans && model != ml.ModelDBSCAN {
		writeError(w, http.StatusBadRequest, "Invalid model. Use model='kmeans' or model='dbscan'.")
		metrics.RecordPrediction(endpointGroup, invalidModelLabel, "client_error", time.Since(start))
		return
	}

	raw := decodeBody(r)
	scaler := h.svc.ClusterScaler()
	if missing := scaler.Missing(raw); len(missing) > 0 {
		writeError(w, http.StatusBadRequest, errors.NewMissingFields(missing).Error())
		metrics.RecordPrediction(endpointGroup, model, "client_error", time.Since(start))
		return
	}

	data, err := scaler.Numeric(raw)
	if err != nil {
		h.failPredict(w, r, endpointGroup, model, start, err)
		return
	}

	key := cache.Key(endpointGroup, []string{model}, raw)
	if h.serveCached(w, r, key) {
		metrics.RecordPrediction(endpointGroup, model, "success", time.Since(start))
		return
	}

	result, err := h.svc.PredictGroup(model, data)
	if err != nil {
		h.failPredict(w, r, endpointGroup, model, start, err)
		return
	}

	resp := groupResponse{
		ModelUsed:      result.Model,
		PredictedGroup: result.Group,
		GroupInfo:      result.Info,
		InputData:      raw,
	}
	h.storeCached(r, key, resp)

	writeJSON(w, http.StatusOK, resp)
	metrics.RecordPrediction(endpointGroup, model, "success", time.Since(start))
}

// HandlePredictRevenue predicts next-month revenue with a regression model
func (h *Handler) HandlePredictRevenue(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	start := time.Now()
	model := queryOrDefault(r, "model", ml.ModelXGBoost)
	if model != ml.ModelRandomForest && model != ml.ModelXGBoost {
		writeError(w, http.StatusBadRequest, "Invalid model. Use model='xgboost' or model='random_forest'.")
		metrics.RecordPrediction(endpointRevenue, invalidModelLabel, "client_error", time.Since(start))
		return
	}

	raw := decodeBody(r)
	scaler := h.svc.RegressionScaler()
	if missing := scaler.Missing(raw); len(missing) > 0 {
		writeError(w, http.StatusBadRequest, errors.NewMissingFields(missing).Error())
		metrics.RecordPrediction(endpointRevenue, model, "client_error", time.Since(start))
		return
	}

	data, err := scaler.Numeric(raw)
	if err != nil {
		h.failPredict(w, r, endpointRevenue, model, start, err)
		return
	}

	key := cache.Key(endpointRevenue, []string{model}, raw)
	if h.serveCached(w, r, key) {
		metrics.RecordPrediction(endpointRevenue, model, "success", time.Since(start))
		return
	}

	result, err := h.svc.PredictRevenue(model, data)
	if err != nil {
		h.failPredict(w, r, endpointRevenue, model, start, err)
		return
	}

	resp := revenueResponse{
		ModelUsed:        result.Model,
		InputData:        raw,
		NextMonthRevenue: result.Formatted,
	}
	h.storeCached(r, key, resp)

	writeJSON(w, http.StatusOK, resp)
	metrics.RecordPrediction(endpointRevenue, model, "success", time.Since(start))
}

// HandlePredictAll composes the grouping and revenue predictions
func (h *Handler) HandlePredictAll(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	start := time.Now()
	groupModel := queryOrDefault(r, "group_model", ml.ModelKMeans)
	revModel := queryOrDefault(r, "rev_model", ml.ModelXGBoost)

	if groupModel != ml.ModelKMeans && groupModel != ml.ModelDBSCAN {
		writeError(w, http.StatusBadRequest, "Invalid group_model. Use group_model='kmeans' or 'dbscan'.")
		metrics.RecordPrediction(endpointAll, invalidModelLabel, "client_error", time.Since(start))
		return
	}
	if revModel != ml.ModelRandomForest && revModel != ml.ModelXGBoost {
		writeError(w, http.StatusBadRequest, "Invalid rev_model. Use rev_model='xgboost' or 'random_forest'.")
		metrics.RecordPrediction(endpointAll, invalidModelLabel, "client_error", time.Since(start))
		return
	}

	raw := decodeBody(r)
	missing := mergeMissing(
		h.svc.ClusterScaler().Missing(raw),
		h.svc.RegressionScaler().Missing(raw),
	)
	if len(missing) > 0 {
		writeError(w, http.StatusBadRequest, errors.NewMissingFields(missing).Error())
		metrics.RecordPrediction(endpointAll, groupModel, "client_error", time.Since(start))
		return
	}

	clusterData, err := h.svc.ClusterScaler().Numeric(raw)
	if err != nil {
		h.failPredict(w, r, endpointAll, groupModel, start, err)
		return
	}
	revenueData, err := h.svc.RegressionScaler().Numeric(raw)
	if err != nil {
		h.failPredict(w, r, endpointAll, revModel, start, err)
		return
	}

	debug := debugRequested(r)

	var key string
	if !debug {
		key = cache.Key(endpointAll, []string{groupModel, revModel}, raw)
		if h.serveCached(w, r, key) {
			metrics.RecordPrediction(endpointAll, groupModel, "success", time.Since(start))
			return
		}
	}

	groupResult, err := h.svc.PredictGroup(groupModel, clusterData)
	if err != nil {
		h.failPredict(w, r, endpointAll, groupModel, start, err)
		return
	}

	revenueResult, err := h.svc.PredictRevenue(revModel, revenueData)
	if err != nil {
		h.failPredict(w, r, endpointAll, revModel, start, err)
		return
	}

	resp := allResponse{
		ProductGroup:      groupResult.Info.ClusterName,
		Description:       groupResult.Info.Description,
		RecommendedAction: groupResult.Info.RecommendedAction,
		NextMonthRevenue:  revenueResult.Formatted,
		ModelsUsed:        []string{groupResult.Model, revenueResult.Model},
	}

	if debug {
		dbg, err := h.svc.Debug(revenueData, revenueResult)
		if err != nil {
			h.failPredict(w, r, endpointAll, revModel, start, err)
			return
		}
		resp.Debug = dbg
	} else {
		h.storeCached(r, key, resp)
	}

	writeJSON(w, http.StatusOK, resp)
	metrics.RecordPrediction(endpointAll, groupModel, "success", time.Since(start))
}

// failPredict reports a processing failure to the caller, the log and the
// error tracker.
func (h *Handler) failPredict(w http.ResponseWriter, r *http.Request, endpoint, model string, start time.Time, err error) {
	// An unknown model name at this point means the registry is missing an
	// artifact the selector validation allowed, which is still client-visible
	// as a bad selector.
	status := http.StatusInternalServerError
	if errors.Is(err, errors.ErrUnknownModel) {
		status = http.StatusBadRequest
		writeError(w, status, "Invalid model. Model '"+model+"' is not loaded.")
		metrics.RecordPrediction(endpoint, model, "client_error", time.Since(start))
		return
	}

	h.log.ReportError(r.Context(), err, map[string]string{
		"endpoint": endpoint,
		"model":    model,
	})
	writeError(w, status, "Failed to prepare/predict: "+err.Error())
	metrics.RecordPrediction(endpoint, model, "error", time.Since(start))
}

// serveCached writes a cached response when one exists for key
func (h *Handler) serveCached(w http.ResponseWriter, r *http.Request, key string) bool {
	if h.cache == nil {
		return false
	}

	var body json.RawMessage
	found, err := h.cache.Get(r.Context(), key, &body)
	if err != nil {
		h.log.Warnw("cache lookup failed", "error", err)
		metrics.RecordCache("error")
		return false
	}
	if !found {
		metrics.RecordCache("miss")
		return false
	}

	metrics.RecordCache("hit")
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
	return true
}

// storeCached persists a successful response for the cache TTL
func (h *Handler) storeCached(r *http.Request, key string, resp interface{}) {
	if h.cache == nil {
		return
	}
	if err := h.cache.Set(r.Context(), key, resp); err != nil {
		h.log.Warnw("cache store failed", "error", err)
		metrics.RecordCache("error")
	}
}

// decodeBody parses the JSON body; malformed or absent bodies degrade to an
// empty payload so validation reports every field as missing.
func decodeBody(r *http.Request) map[string]interface{} {
	var data map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&data); err != nil || data == nil {
		return map[string]interface{}{}
	}
	return data
}

func queryOrDefault(r *http.Request, name, def string) string {
	if v := r.URL.Query().Get(name); v != "" {
		return v
	}
	return def
}

func debugRequested(r *http.Request) bool {
	switch r.URL.Query().Get("debug") {
	case "1", "true", "True":
		return true
	}
	return false
}

func mergeMissing(a, b []string) []string {
	if len(a) == 0 && len(b) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(a)+len(b))
	var merged []string
	for _, f := range append(a, b...) {
		if !seen[f] {
			seen[f] = true
			merged = append(merged, f)
		}
	}
	return errors.NewMissingFields(merged).Fields
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
