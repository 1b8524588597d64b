// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2025-present Datadog, Inc.

// Package e2etests runs the datadog-geotrace binary, both as a CLI and as an
// HTTP server, against localhost. The tests are built with -tags e2etest
// and use sudo to get raw socket privileges.
package e2etests
