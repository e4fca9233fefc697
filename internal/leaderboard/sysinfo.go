package leaderboard

import (
	"hash/fnv"
	"os"
	"os/exec"
	"runtime"
	"strconv"
	"strings"
)

// CollectSystemMetadata gathers coarse host information for submissions.
// Only aggregate hardware facts are reported; the hostname is reduced to a
// small hash bucket.
func CollectSystemMetadata() map[string]any {
	meta := map[string]any{
		"os":            runtime.GOOS,
		"architecture":  runtime.GOARCH,
		"go_version":    runtime.Version(),
		"cpu_count":     runtime.NumCPU(),
		"hostname_hash": hostnameHash(),
	}

	switch runtime.GOOS {
	case "linux":
		for k, v := range collectLinuxInfo() {
			meta[k] = v
		}
	case "darwin":
		for k, v := range collectDarwinInfo() {
			meta[k] = v
		}
	}
	return meta
}

func hostnameHash() int {
	hostname, err := os.Hostname()
	if err != nil {
		return 0
	}
	h := fnv.New32a()
	h.Write([]byte(hostname)) //nolint:errcheck
	return int(h.Sum32() % 10000)
}

func collectLinuxInfo() map[string]any {
	info := map[string]any{}

	if data, err := os.ReadFile("/proc/cpuinfo"); err == nil {
		for _, line := range strings.Split(string(data), "\n") {
			if strings.Contains(line, "model name") {
				if _, value, ok := strings.Cut(line, ":"); ok {
					info["cpu_model"] = strings.TrimSpace(value)
				}
				break
			}
		}
	}

	if data, err := os.ReadFile("/proc/meminfo"); err == nil {
		meminfo := string(data)
		if kb, ok := parseMeminfoValue(meminfo, "MemTotal"); ok {
			info["memory_total_gb"] = roundGB(float64(kb) / 1e6)
		}
		if kb, ok := parseMeminfoValue(meminfo, "MemAvailable"); ok {
			info["memory_available_gb"] = roundGB(float64(kb) / 1e6)
		}
	}

	return info
}

func parseMeminfoValue(meminfo, key string) (int, bool) {
	for _, line := range strings.Split(meminfo, "\n") {
		if !strings.HasPrefix(line, key+":") {
			continue
		}
		fields := strings.Fields(strings.TrimPrefix(line, key+":"))
		if len(fields) == 0 {
			return 0, false
		}
		n, err := strconv.Atoi(fields[0])
		if err != nil {
			return 0, false
		}
		return n, true
	}
	return 0, false
}

func collectDarwinInfo() map[string]any {
	info := map[string]any{}

	sysctl := func(key string) string {
		out, err := exec.Command("sysctl", "-n", key).Output()
		if err != nil {
			return ""
		}
		return strings.TrimSpace(string(out))
	}

	if brand := sysctl("machdep.cpu.brand_string"); brand != "" {
		info["cpu_model"] = brand
	}
	if mem := sysctl("hw.memsize"); mem != "" {
		if b, err := strconv.ParseInt(mem, 10, 64); err == nil {
			info["memory_total_gb"] = roundGB(float64(b) / 1e9)
		}
	}
	if physical := sysctl("hw.physicalcpu"); physical != "" {
		if n, err := strconv.Atoi(physical); err == nil {
			info["cpu_cores_physical"] = n
		}
	}
	if logical := sysctl("hw.logicalcpu"); logical != "" {
		if n, err := strconv.Atoi(logical); err == nil {
			info["cpu_cores_logical"] = n
		}
	}

	return info
}

func roundGB(v float64) float64 {
	return float64(int(v*10+0.5)) / 10
}
