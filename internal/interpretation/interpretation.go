package interpretation

import "prophet/internal/ml"

// GroupInfo is the business-readable description of a product cluster
type GroupInfo struct {
	ClusterName       string `json:"cluster_name"`
	Description       string `json:"description"`
	RecommendedAction string `json:"recommended_action"`
}

// Unknown is returned for cluster IDs outside the interpreted range
var Unknown = GroupInfo{
	ClusterName: "unknown product cluster",
}

// kmeansGroups interprets the KMeans cluster labels
var kmeansGroups = map[int]GroupInfo{
	0: {
		ClusterName:       "steady mid-volume products",
		Description:       "Consistent sales with moderate revenue and a stable customer base.",
		RecommendedAction: "Maintain stock levels and monitor for seasonal shifts.",
	},
	1: {
		ClusterName:       "high-revenue flagship products",
		Description:       "Top revenue contributors with high transaction counts and broad customer reach.",
		RecommendedAction: "Protect availability; prioritize in promotions and bundles.",
	},
	2: {
		ClusterName:       "low-traction long-tail products",
		Description:       "Low quantity and revenue, bought by few customers.",
		RecommendedAction: "Review pricing or consider delisting underperformers.",
	},
	3: {
		ClusterName:       "bulk-order wholesale products",
		Description:       "Large quantities per transaction from a small set of repeat buyers.",
		RecommendedAction: "Negotiate volume agreements with the key accounts.",
	},
}

// dbscanGroups interprets the DBSCAN cluster labels; -1 is noise
var dbscanGroups = map[int]GroupInfo{
	-1: {
		ClusterName:       "outlier products",
		Description:       "Sales pattern does not match any dense product segment.",
		RecommendedAction: "Inspect individually; pattern may indicate data issues or one-off sales.",
	},
	0: {
		ClusterName:       "core catalog products",
		Description:       "The dense majority segment with typical revenue and purchase behavior.",
		RecommendedAction: "Standard replenishment and marketing treatment.",
	},
	1: {
		ClusterName:       "high-frequency repeat products",
		Description:       "Many transactions from returning customers at modest basket sizes.",
		RecommendedAction: "Good candidates for subscription or loyalty offers.",
	},
	2: {
		ClusterName:       "premium niche products",
		Description:       "High revenue per unit sold to a narrow customer segment.",
		RecommendedAction: "Targeted marketing; avoid broad discounting.",
	},
}

// ForModel returns the business interpretation of a cluster ID for the
// given clustering model, falling back to Unknown for unmapped IDs.
func ForModel(model string, cluster int) GroupInfo {
	var table map[int]GroupInfo
	switch model {
	case ml.ModelKMeans:
		table = kmeansGroups
	case ml.ModelDBSCAN:
		table = dbscanGroups
	default:
		return Unknown
	}

	info, ok := table[cluster]
	if !ok {
		return Unknown
	}
	return info
}
