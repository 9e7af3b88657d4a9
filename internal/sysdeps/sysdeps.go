// Package sysdeps detects the host platform family and manages system-level
// prerequisites: mapping logical package names to platform-specific
// install/check/uninstall commands, caching install status, and allowing
// per-package overrides (spec.md C4).
package sysdeps

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"sync"

	"github.com/google/renameio"

	"github.com/lithiumaddons/core/errs"
)

// PlatformKind identifies a host's package-manager family.
type PlatformKind int

const (
	Unknown PlatformKind = iota
	Debian
	Fedora
	Arch
	OpenSUSE
	Gentoo
	MacOS
	Windows
)

func (p PlatformKind) String() string {
	switch p {
	case Debian:
		return "Debian"
	case Fedora:
		return "Fedora"
	case Arch:
		return "Arch"
	case OpenSUSE:
		return "OpenSUSE"
	case Gentoo:
		return "Gentoo"
	case MacOS:
		return "MacOS"
	case Windows:
		return "Windows"
	default:
		return "Unknown"
	}
}

// DetectPlatform identifies the host's package-manager family. On Linux it
// reads /etc/os-release and matches the distribution id; other targets are
// fixed by the build's GOOS.
func DetectPlatform() PlatformKind {
	switch runtime.GOOS {
	case "darwin":
		return MacOS
	case "windows":
		return Windows
	case "linux":
		return detectLinuxDistro("/etc/os-release")
	default:
		return Unknown
	}
}

func detectLinuxDistro(path string) PlatformKind {
	f, err := os.Open(path)
	if err != nil {
		return Unknown
	}
	defer f.Close()

	ids := map[string]bool{}
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := sc.Text()
		if !strings.HasPrefix(line, "ID=") && !strings.HasPrefix(line, "ID_LIKE=") {
			continue
		}
		_, v, _ := strings.Cut(line, "=")
		v = strings.Trim(v, `"`)
		for _, field := range strings.Fields(v) {
			ids[strings.ToLower(field)] = true
		}
	}
	switch {
	case ids["debian"] || ids["ubuntu"]:
		return Debian
	case ids["fedora"] || ids["rhel"]:
		return Fedora
	case ids["arch"]:
		return Arch
	case ids["opensuse"] || ids["suse"]:
		return OpenSUSE
	case ids["gentoo"]:
		return Gentoo
	default:
		return Unknown
	}
}

// commandSet is the install/check/uninstall command template for one
// platform; the dependency's logical name is appended as the last argument.
type commandSet struct {
	install   []string
	check     []string
	uninstall []string
}

var defaultCommands = map[PlatformKind]commandSet{
	Debian:   {install: []string{"apt-get", "install", "-y"}, check: []string{"dpkg", "-s"}, uninstall: []string{"apt-get", "remove", "-y"}},
	Fedora:   {install: []string{"dnf", "install", "-y"}, check: []string{"rpm", "-q"}, uninstall: []string{"dnf", "remove", "-y"}},
	Arch:     {install: []string{"pacman", "-S", "--noconfirm"}, check: []string{"pacman", "-Q"}, uninstall: []string{"pacman", "-R", "--noconfirm"}},
	OpenSUSE: {install: []string{"zypper", "install", "-y"}, check: []string{"rpm", "-q"}, uninstall: []string{"zypper", "remove", "-y"}},
	Gentoo:   {install: []string{"emerge"}, check: []string{"equery", "list"}, uninstall: []string{"emerge", "--unmerge"}},
	MacOS:    {install: []string{"brew", "install"}, check: []string{"brew", "list"}, uninstall: []string{"brew", "uninstall"}},
}

const cacheFilename = "dependency_cache.json"

// Manager probes, installs, and caches the status of system-level
// dependencies for the detected platform.
type Manager struct {
	Log      *log.Logger
	platform PlatformKind
	cacheDir string

	mu       sync.Mutex
	cache    map[string]bool
	overrides map[string][]string

	cancelMu sync.Mutex
	cancels  map[string]context.CancelFunc
}

// New constructs a Manager for the detected platform, loading the on-disk
// cache from cacheDir/dependency_cache.json. A corrupt cache file is logged
// and treated as empty; an absent one is treated as empty.
func New(cacheDir string, logger *log.Logger) *Manager {
	if logger == nil {
		logger = log.Default()
	}
	m := &Manager{
		Log:       logger,
		platform:  DetectPlatform(),
		cacheDir:  cacheDir,
		cache:     map[string]bool{},
		overrides: map[string][]string{},
		cancels:   map[string]context.CancelFunc{},
	}
	m.loadCache()
	return m
}

func (m *Manager) cachePath() string {
	return m.cacheDir + string(os.PathSeparator) + cacheFilename
}

func (m *Manager) loadCache() {
	data, err := os.ReadFile(m.cachePath())
	if err != nil {
		return // absent cache treated as empty
	}
	var c map[string]bool
	if err := json.Unmarshal(data, &c); err != nil {
		m.Log.Printf("sysdeps: corrupt cache %s, ignoring: %v", m.cachePath(), err)
		return
	}
	m.cache = c
}

// SaveCache persists the in-memory cache to disk. The Manager does not
// call it itself; the cache reaches disk only when a caller invokes it.
func (m *Manager) SaveCache() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, err := json.MarshalIndent(m.cache, "", "  ")
	if err != nil {
		return err
	}
	if err := renameio.WriteFile(m.cachePath(), data, 0o644); err != nil {
		return &errs.IoError{Op: "write", Path: m.cachePath(), Err: err}
	}
	return nil
}

func (m *Manager) commandsFor(name string) commandSet {
	return defaultCommands[m.platform]
}

// SetCustomInstallCommand overrides the install command argv for name.
func (m *Manager) SetCustomInstallCommand(name string, cmd []string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.overrides[name] = cmd
}

// CheckInstalled consults the in-memory cache; on a miss, it runs the
// platform-specific probe command and caches the result.
func (m *Manager) CheckInstalled(ctx context.Context, name string) bool {
	m.mu.Lock()
	if installed, ok := m.cache[name]; ok {
		m.mu.Unlock()
		return installed
	}
	m.mu.Unlock()

	cmds := m.commandsFor(name)
	installed := false
	if len(cmds.check) > 0 {
		argv := append(append([]string{}, cmds.check...), name)
		cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
		installed = cmd.Run() == nil
	}

	m.mu.Lock()
	m.cache[name] = installed
	m.mu.Unlock()
	return installed
}

// Install runs the platform-specific (or overridden) install command.
func (m *Manager) Install(ctx context.Context, name string) error {
	m.mu.Lock()
	argv, ok := m.overrides[name]
	if !ok {
		cmds := m.commandsFor(name)
		argv = append(append([]string{}, cmds.install...), name)
	}
	m.mu.Unlock()
	if len(argv) == 0 {
		return &errs.PlatformUnsupported{Operation: "install", Platform: m.platform.String()}
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		exitCode := -1
		if ee, ok := err.(*exec.ExitError); ok {
			exitCode = ee.ExitCode()
		}
		return &errs.SubprocessFailure{Argv: argv, ExitCode: exitCode, Message: string(out)}
	}

	m.mu.Lock()
	m.cache[name] = true
	m.mu.Unlock()
	return nil
}

// InstallAsync starts Install in the background and reports completion
// through logCallback. It returns immediately. The install's cancel func
// is stored so a later Cancel(name) can stop the in-flight install.
func (m *Manager) InstallAsync(name string, logCallback func(name string, err error)) {
	ctx, cancel := context.WithCancel(context.Background())
	m.cancelMu.Lock()
	m.cancels[name] = cancel
	m.cancelMu.Unlock()

	go func() {
		err := m.Install(ctx, name)
		m.cancelMu.Lock()
		delete(m.cancels, name)
		m.cancelMu.Unlock()
		if logCallback != nil {
			logCallback(name, err)
		}
	}()
}

// Cancel sends a best-effort cancellation signal to an in-flight async
// install of name; cancelling its context kills the install subprocess.
func (m *Manager) Cancel(name string) {
	m.cancelMu.Lock()
	defer m.cancelMu.Unlock()
	if cancel, ok := m.cancels[name]; ok {
		cancel()
	}
}

// Uninstall runs the platform-specific uninstall command.
func (m *Manager) Uninstall(ctx context.Context, name string) error {
	cmds := m.commandsFor(name)
	if len(cmds.uninstall) == 0 {
		return &errs.PlatformUnsupported{Operation: "uninstall", Platform: m.platform.String()}
	}
	argv := append(append([]string{}, cmds.uninstall...), name)
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		exitCode := -1
		if ee, ok := err.(*exec.ExitError); ok {
			exitCode = ee.ExitCode()
		}
		return &errs.SubprocessFailure{Argv: argv, ExitCode: exitCode, Message: string(out)}
	}
	m.mu.Lock()
	m.cache[name] = false
	m.mu.Unlock()
	return nil
}

// GenerateReport returns a multi-line string enumerating every cached
// dependency and its installed status.
func (m *Manager) GenerateReport() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var b strings.Builder
	for name, installed := range m.cache {
		fmt.Fprintf(&b, "%s: installed=%v\n", name, installed)
	}
	return b.String()
}

// Platform returns the detected platform kind.
func (m *Manager) Platform() PlatformKind { return m.platform }
