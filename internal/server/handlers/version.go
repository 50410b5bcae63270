package handlers

import (
	"encoding/json"
	"net/http"
	"sync"
)

// VersionInfo is build-time identity, set by main via SetVersionInfo.
type VersionInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildDate string `json:"build_date"`
}

var (
	versionMu   sync.RWMutex
	versionInfo = VersionInfo{Version: "dev", Commit: "HEAD", BuildDate: "unknown"}
)

// SetVersionInfo records build identity for the /version endpoint.
func SetVersionInfo(version, commit, buildDate string) {
	versionMu.Lock()
	versionInfo = VersionInfo{Version: version, Commit: commit, BuildDate: buildDate}
	versionMu.Unlock()
}

// GetVersionInfo returns the recorded build identity.
func GetVersionInfo() VersionInfo {
	versionMu.RLock()
	defer versionMu.RUnlock()
	return versionInfo
}

// VersionHandler serves /version.
func VersionHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(GetVersionInfo())
}
