//go:build ignore

// build.go - CUNY dashboards build script
// Usage: go run build.go [-target=TARGET]
// Targets: all, enrollment, retention, datasummary, clean, test, release

package main

import (
	"flag"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/fatih/color"
)

const (
	version = "0.1.0"
	module  = "cunydash"
)

// BuildContext holds configuration for the build process
type BuildContext struct {
	Verbose bool
	Release bool
}

var (
	rootDir string
	distDir string

	// key = directory under cmd/, value = output binary name
	executables = map[string]string{
		"enrollment-dashboard": "enrollment-dashboard",
		"retention-dashboard":  "retention-dashboard",
		"datasummary":          "datasummary",
	}

	info    = color.New(color.FgBlue)
	success = color.New(color.FgGreen)
	failure = color.New(color.FgRed)
	header  = color.New(color.FgCyan)
)

func init() {
	cwd, err := os.Getwd()
	if err != nil {
		panic(fmt.Sprintf("Failed to get current directory: %v", err))
	}
	rootDir = cwd
	distDir = filepath.Join(rootDir, "dist")

	if _, err := os.Stat(filepath.Join(rootDir, "go.mod")); os.IsNotExist(err) {
		panic(fmt.Sprintf("go.mod not found in %s; run build.go from the repository root", rootDir))
	}
}

func main() {
	target := flag.String("target", "all", "Build target")
	verbose := flag.Bool("v", false, "Verbose output")
	flag.Parse()

	printHeader()
	startTime := time.Now()

	ctx := &BuildContext{Verbose: *verbose}

	switch *target {
	case "all":
		buildAll(ctx)
	case "enrollment":
		buildExecutable("enrollment-dashboard", ctx)
	case "retention":
		buildExecutable("retention-dashboard", ctx)
	case "datasummary":
		buildExecutable("datasummary", ctx)
	case "clean":
		clean()
	case "test":
		runTests(ctx.Verbose)
	case "release":
		ctx.Release = true
		buildRelease(ctx)
	default:
		showHelp()
		os.Exit(1)
	}

	printSuccess(fmt.Sprintf("Build completed in %s", time.Since(startTime).Round(time.Millisecond)))
}

func printHeader() {
	header.Println("===========================================")
	header.Println("        CUNY Dashboards - Build            ")
	header.Println("===========================================")
	fmt.Println()
}

func printInfo(msg string) {
	info.Print("[INFO] ")
	fmt.Println(msg)
}

func printSuccess(msg string) {
	success.Print("[SUCCESS] ")
	fmt.Println(msg)
}

func printError(msg string) {
	failure.Print("[ERROR] ")
	fmt.Println(msg)
}

func buildAll(ctx *BuildContext) {
	printInfo("Building all binaries...")

	if err := os.MkdirAll(distDir, 0755); err != nil {
		printError(fmt.Sprintf("Failed to create %s: %v", distDir, err))
		os.Exit(1)
	}

	for name := range executables {
		buildExecutable(name, ctx)
	}

	printSuccess("All binaries built successfully!")
}

func buildExecutable(name string, ctx *BuildContext) {
	exeName, ok := executables[name]
	if !ok {
		printError(fmt.Sprintf("Unknown executable: %s", name))
		os.Exit(1)
	}

	printInfo(fmt.Sprintf("Building %s...", name))

	outputPath := filepath.Join(distDir, exeName)
	if os.Getenv("GOOS") == "windows" {
		outputPath += ".exe"
	}

	ldflags := fmt.Sprintf("-X %s/internal/app.Version=%s -X %s/internal/app.BuildTime=%s",
		module, version, module, time.Now().UTC().Format(time.RFC3339))
	if ctx.Release {
		ldflags = "-s -w " + ldflags
	}

	args := []string{"build"}
	if ctx.Verbose {
		args = append(args, "-v")
	}
	args = append(args, "-ldflags", ldflags, "-o", outputPath, "./cmd/"+name)

	cmd := exec.Command("go", args...)
	cmd.Dir = rootDir
	if ctx.Verbose {
		fmt.Printf("Running: go %s\n", strings.Join(args, " "))
		cmd.Stdout = os.Stdout
	}
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		printError(fmt.Sprintf("Failed to build %s: %v", name, err))
		os.Exit(1)
	}

	if stat, err := os.Stat(outputPath); err == nil {
		printSuccess(fmt.Sprintf("Built %s (%.1f MB)", filepath.Base(outputPath), float64(stat.Size())/1024/1024))
	}
}

func clean() {
	printInfo("Cleaning build artifacts...")
	if err := os.RemoveAll(distDir); err != nil {
		printError(fmt.Sprintf("Failed to clean dist directory: %v", err))
		os.Exit(1)
	}
	printSuccess("Build artifacts cleaned")
}

func runTests(verbose bool) {
	printInfo("Running Go tests...")

	args := []string{"test", "-race"}
	if verbose {
		args = append(args, "-v")
	}
	args = append(args, "./...")

	cmd := exec.Command("go", args...)
	cmd.Dir = rootDir
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		printError(fmt.Sprintf("Go tests failed: %v", err))
		os.Exit(1)
	}

	printSuccess("All tests passed")
}

func buildRelease(ctx *BuildContext) {
	printInfo("Building release version...")

	clean()
	os.Setenv("CGO_ENABLED", "0")
	buildAll(ctx)

	versionFile := filepath.Join(distDir, "VERSION.txt")
	content := fmt.Sprintf("CUNY dashboards v%s\nBuilt: %s\n", version, time.Now().Format("2006-01-02 15:04:05"))
	if err := os.WriteFile(versionFile, []byte(content), 0644); err != nil {
		printError(fmt.Sprintf("Failed to write %s: %v", versionFile, err))
	}

	printSuccess("Release build completed")
}

func showHelp() {
	fmt.Println("Usage: go run build.go [-target=TARGET] [-v]")
	fmt.Println()
	fmt.Println("Targets:")
	fmt.Println("  all          Build every binary (default)")
	fmt.Println("  enrollment   Build the enrollment dashboard")
	fmt.Println("  retention    Build the retention dashboard")
	fmt.Println("  datasummary  Build the dataset summary tool")
	fmt.Println("  clean        Remove dist/")
	fmt.Println("  test         Run all tests with the race detector")
	fmt.Println("  release      Clean, then build stripped binaries")
}
