package cache

import "strings"

const defaultScope = "default"

func scoped(storeID string, parts ...string) string {
	if strings.TrimSpace(storeID) == "" {
		storeID = defaultScope
	}
	return storeID + ":" + strings.Join(parts, ":")
}

// KeySettings is the key for a store's resolved settings.
func KeySettings(storeID string) string {
	return scoped(storeID, "settings")
}

// KeyProduct is the key for a product detail payload.
func KeyProduct(storeID, slug string) string {
	return scoped(storeID, "product", slug)
}

// KeyAnalytics is the key for a dashboard aggregate.
func KeyAnalytics(storeID string, parts ...string) string {
	return scoped(storeID, append([]string{"an"}, parts...)...)
}
