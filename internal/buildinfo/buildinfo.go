// Copyright (c) 2025, ForbesGRyan and the gamearr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package buildinfo

import "fmt"

// Populated at build time via ldflags:
//
//	-X github.com/ForbesGRyan/gamearr-sub004/internal/buildinfo.Version=v1.2.3
var (
	Version = "dev"
	Commit  = ""
	Date    = ""
)

// UserAgent identifies gamearr in outbound HTTP requests.
var UserAgent = fmt.Sprintf("gamearr/%s", Version)
