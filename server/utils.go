// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2025-present Datadog, Inc.

package server

import (
	"fmt"
	"strconv"
)

// Helper functions for parsing query parameters. A present but malformed
// value is an error rather than a silent default.

func getStringParam(query map[string][]string, key string, defaultValue string) string {
	if values, ok := query[key]; ok && len(values) > 0 {
		return values[0]
	}
	return defaultValue
}

func getIntParam(query map[string][]string, key string, defaultValue int) (int, error) {
	if values, ok := query[key]; ok && len(values) > 0 {
		val, err := strconv.Atoi(values[0])
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %q is not an integer", key, values[0])
		}
		return val, nil
	}
	return defaultValue, nil
}

// getBoolParam treats a bare "?flag" as true.
func getBoolParam(query map[string][]string, key string, defaultValue bool) (bool, error) {
	if values, ok := query[key]; ok && len(values) > 0 {
		if values[0] == "" {
			return true, nil
		}
		val, err := strconv.ParseBool(values[0])
		if err != nil {
			return false, fmt.Errorf("invalid %s: %q is not a boolean", key, values[0])
		}
		return val, nil
	}
	return defaultValue, nil
}
