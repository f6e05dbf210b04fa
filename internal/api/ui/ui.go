package ui

import (
	"embed"
	"html/template"
	"net/http"

	"prophet/internal/ml"
	"prophet/pkg/errors"
	"prophet/pkg/logger"
)

//go:embed assets/form.html.tmpl
var assets embed.FS

// ModelOption is a selectable model in the form
type ModelOption struct {
	Value string
	Label string
}

// Field describes one numeric input of the form
type Field struct {
	Name  string
	Label string
	Step  string
}

type pageData struct {
	GroupModels   []ModelOption
	RevenueModels []ModelOption
	Fields        []Field
}

// Handler renders the interactive prediction form
type Handler struct {
	tmpl *template.Template
	data pageData
	log  *logger.Logger
}

// New parses the embedded form template
func New(log *logger.Logger) (*Handler, error) {
	tmpl, err := template.ParseFS(assets, "assets/form.html.tmpl")
	if err != nil {
		return nil, errors.Wrap(err, "parse ui template")
	}

	return &Handler{
		tmpl: tmpl,
		log:  log.With("component", "ui"),
		data: pageData{
			GroupModels: []ModelOption{
				{Value: ml.ModelKMeans, Label: "Predictor-1 (KMeans)"},
				{Value: ml.ModelDBSCAN, Label: "Predictor-2 (DBSCAN)"},
			},
			RevenueModels: []ModelOption{
				{Value: ml.ModelXGBoost, Label: "Predictor-1 (XGBoost)"},
				{Value: ml.ModelRandomForest, Label: "Predictor-2 (Random Forest)"},
			},
			Fields: []Field{
				{Name: "NetRevenue", Label: "Net revenue", Step: "0.01"},
				{Name: "NetQuantity", Label: "Net quantity", Step: "0.01"},
				{Name: "NumTransactions", Label: "Transactions", Step: "1"},
				{Name: "NumUniqueCustomers", Label: "Unique customers", Step: "1"},
				{Name: "NetRevenue_LastMonth", Label: "Net revenue (last month)", Step: "0.01"},
				{Name: "NetRevenue_MA3", Label: "Net revenue (3-month MA)", Step: "0.01"},
				{Name: "Month", Label: "Month (1-12)", Step: "1"},
				{Name: "ProductFrequency", Label: "Product frequency", Step: "1"},
			},
		},
	}, nil
}

// ServeHTTP renders the form on GET and POST; the form itself submits to
// /predict_all from the browser.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.tmpl.Execute(w, h.data); err != nil {
		h.log.Errorw("render form failed", "error", err)
	}
}
