// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2025-present Datadog, Inc.

// Command datadog-geotrace traces the route to a host and places every hop
// on a world map.
package main

import (
	"github.com/DataDog/datadog-geotrace/cmd"
)

func main() {
	cmd.Execute()
}
