package cache

import (
	"strings"
	"testing"
)

func TestKey_Deterministic(t *testing.T) {
	payload := map[string]interface{}{"NetRevenue": 100.0, "Month": 3.0}

	a := Key("predict_revenue", []string{"xgboost"}, payload)
	b := Key("predict_revenue", []string{"xgboost"}, map[string]interface{}{"Month": 3.0, "NetRevenue": 100.0})

	if a != b {
		t.Errorf("keys differ for equal payloads: %s vs %s", a, b)
	}
	if !strings.HasPrefix(a, "prediction:") {
		t.Errorf("unexpected key prefix: %s", a)
	}
}

func TestKey_Differentiates(t *testing.T) {
	payload := map[string]interface{}{"NetRevenue": 100.0, "Month": 3.0}
	base := Key("predict_revenue", []string{"xgboost"}, payload)

	variants := []string{
		Key("predict_group", []string{"xgboost"}, payload),
		Key("predict_revenue", []string{"random_forest"}, payload),
		Key("predict_revenue", []string{"xgboost"}, map[string]interface{}{"NetRevenue": 100.5, "Month": 3.0}),
		Key("predict_revenue", []string{"xgboost"}, map[string]interface{}{"NetRevenue": 100.0}),
	}

	for i, v := range variants {
		if v == base {
			t.Errorf("variant %d collides with base key", i)
		}
	}
}

func TestKey_ExtraFieldsDifferentiate(t *testing.T) {
	// Responses echo the payload back, so fields the models never read
	// still have to separate cache entries.
	base := Key("predict_group", []string{"kmeans"}, map[string]interface{}{
		"NetRevenue": 100.0, "NetQuantity": 50.0,
	})
	extra := Key("predict_group", []string{"kmeans"}, map[string]interface{}{
		"NetRevenue": 100.0, "NetQuantity": 50.0, "Note": "promo week",
	})

	if base == extra {
		t.Error("payloads differing only in extra fields share a key")
	}
}
