package main

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/desertthunder/tunescope/internal/models"
	"github.com/desertthunder/tunescope/internal/shared"
	th "github.com/desertthunder/tunescope/internal/testing"
	"github.com/urfave/cli/v3"
)

func noEnv(string) string { return "" }

func testConfig() *shared.Config {
	config := shared.DefaultConfig()
	config.Playlists = []shared.PlaylistConfig{
		{Name: "Top 50 Japan", ID: "pj"},
		{Name: "RapCaviar", ID: "pr"},
	}
	return config
}

func testCatalog() *th.FakeCatalog {
	return th.NewFakeCatalog().
		AddPlaylist("pj", th.Item("j1", "Idol", "YOASOBI", 90), th.NullItem(), th.Item("j2", "Bling-Bang-Bang-Born", "Creepy Nuts", 85)).
		AddPlaylist("pr", th.Item("r1", "Not Like Us", "Kendrick Lamar", 95)).
		AddFeatures("j1", models.AudioFeatures{Acousticness: 0.1, Danceability: 0.6, Energy: 0.9, Liveness: 0.2, Speechiness: 0.1, Valence: 0.8, Tempo: 166}).
		AddFeatures("j2", models.AudioFeatures{Acousticness: 0.3, Danceability: 0.8, Energy: 0.7, Liveness: 0.1, Speechiness: 0.3, Valence: 0.5, Tempo: 133}).
		AddFeatures("r1", models.AudioFeatures{Acousticness: 0.01, Danceability: 0.9, Energy: 0.5, Liveness: 0.1, Speechiness: 0.2, Valence: 0.2, Tempo: 101})
}

func newTestRunner(catalog *th.FakeCatalog, output *bytes.Buffer) *Runner {
	return NewRunner(RunnerOpts{
		Config:     testConfig(),
		ConfigPath: "config.toml",
		Catalog:    catalog,
		Logger:     shared.NewLogger(&bytes.Buffer{}),
		Output:     output,
		Getenv:     noEnv,
	})
}

func runApp(r *Runner, args ...string) error {
	app := &cli.Command{Name: "tunescope", Commands: r.register()}
	return app.Run(context.Background(), append([]string{"tunescope"}, args...))
}

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}
			catalog := th.NewFakeCatalog()

			runner := NewRunner(RunnerOpts{
				Config:     config,
				ConfigPath: "/test/path/config.toml",
				Catalog:    catalog,
				Logger:     logger,
				Output:     output,
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.configPath != "/test/path/config.toml" {
				t.Errorf("expected configPath to be set, got %s", runner.configPath)
			}
			if runner.catalog != catalog {
				t.Error("expected catalog to be set")
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
			if runner.session != nil {
				t.Error("expected session to be built lazily")
			}
		})

		t.Run("with nil config uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Config: nil})
			if runner.config == nil || len(runner.config.Playlists) != 5 {
				t.Error("expected default config with the default playlists")
			}
		})

		t.Run("with nil logger uses default", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Logger: nil})
			if runner.logger == nil {
				t.Error("expected default logger to be set")
			}
		})

		t.Run("with nil output uses stdout", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: nil})
			if runner.output != os.Stdout {
				t.Error("expected output to default to os.Stdout")
			}
		})
	})

	t.Run("writeJSON", func(t *testing.T) {
		t.Run("writes formatted JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"key": "value"}, true); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			if !strings.Contains(result, `"key": "value"`) {
				t.Errorf("expected formatted JSON, got %s", result)
			}
			if !strings.HasSuffix(result, "\n") {
				t.Error("expected output to end with newline")
			}
		})

		t.Run("writes compact JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"key": "value"}, false); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			expected := `{"key":"value"}` + "\n"
			if result := output.String(); result != expected {
				t.Errorf("expected %q, got %q", expected, result)
			}
		})

		t.Run("handles marshal error with non-serializable data", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}})

			// channels cannot be marshaled to JSON
			err := runner.writeJSON(make(chan int), false)
			if err == nil || !strings.Contains(err.Error(), "failed to marshal JSON") {
				t.Errorf("expected marshal error, got %v", err)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &th.FWriter{}})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err == nil || !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})

		t.Run("handles newline write failure", func(t *testing.T) {
			limitedWriter := th.NewLimitedWriter(1, 0, &bytes.Buffer{})
			runner := NewRunner(RunnerOpts{Output: &limitedWriter})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err == nil || !strings.Contains(err.Error(), "failed to write newline") {
				t.Errorf("expected newline write error, got %v", err)
			}
		})
	})

	t.Run("writePlain", func(t *testing.T) {
		t.Run("writes plain text successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writePlain("hello %s", "world"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if result := output.String(); result != "hello world" {
				t.Errorf("expected 'hello world', got %q", result)
			}
		})

		t.Run("writePlainln surrounds with newlines", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			runner.writePlainln("Next %d", 1)
			if result := output.String(); result != "\nNext 1\n" {
				t.Errorf("unexpected output %q", result)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &th.FWriter{}})
			if err := runner.writePlain("text"); err == nil {
				t.Error("expected error from failing writer")
			}
		})
	})

	t.Run("register", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{})
		commands := runner.register()

		want := []string{"setup", "serve", "tui", "playlists", "table", "analyze"}
		if len(commands) != len(want) {
			t.Fatalf("expected %d commands, got %d", len(want), len(commands))
		}
		for i, name := range want {
			if commands[i].Name != name {
				t.Errorf("command %d: expected %q, got %q", i, name, commands[i].Name)
			}
		}
	})
}

func TestPrepare(t *testing.T) {
	t.Run("builds the session once", func(t *testing.T) {
		runner := newTestRunner(testCatalog(), &bytes.Buffer{})
		cmd := &cli.Command{}

		if err := runner.prepare(cmd); err != nil {
			t.Fatalf("prepare failed: %v", err)
		}
		session := runner.session
		if err := runner.prepare(cmd); err != nil || runner.session != session {
			t.Errorf("expected session to be reused, got %v", err)
		}
		if got := len(session.Playlists()); got != 2 {
			t.Errorf("expected 2 playlists, got %d", got)
		}
	})

	t.Run("missing credentials", func(t *testing.T) {
		config := testConfig()
		config.Credentials = shared.CredentialsConfig{}
		runner := NewRunner(RunnerOpts{Config: config, ConfigPath: "config.toml", Logger: shared.NewLogger(&bytes.Buffer{}), Getenv: noEnv})

		if err := runner.prepare(&cli.Command{}); !errors.Is(err, shared.ErrMissingCredentials) {
			t.Errorf("expected ErrMissingCredentials, got %v", err)
		}
	})

	t.Run("environment credentials", func(t *testing.T) {
		config := testConfig()
		config.Credentials = shared.CredentialsConfig{}
		env := map[string]string{shared.EnvClientID: "id", shared.EnvClientSecret: "secret"}
		runner := NewRunner(RunnerOpts{
			Config:     config,
			ConfigPath: "config.toml",
			Logger:     shared.NewLogger(&bytes.Buffer{}),
			Getenv:     func(k string) string { return env[k] },
		})

		if err := runner.prepare(&cli.Command{}); err != nil {
			t.Fatalf("prepare failed: %v", err)
		}
		if runner.catalog == nil {
			t.Error("expected a catalog client built from the environment")
		}
	})

	t.Run("explicit --config must exist", func(t *testing.T) {
		catalog := testCatalog()
		missing := filepath.Join(t.TempDir(), "absent.toml")

		err := runApp(newTestRunner(catalog, &bytes.Buffer{}), "analyze", "--config", missing)
		if !errors.Is(err, shared.ErrMissingConfig) {
			t.Errorf("expected ErrMissingConfig, got %v", err)
		}
		if catalog.ItemCalls() != 0 {
			t.Errorf("expected no catalog calls, got %d", catalog.ItemCalls())
		}
	})

	t.Run("missing default config keeps the current one", func(t *testing.T) {
		output := &bytes.Buffer{}
		runner := NewRunner(RunnerOpts{
			Config: testConfig(),
			Logger: shared.NewLogger(&bytes.Buffer{}),
			Output: output,
			Getenv: noEnv,
		})
		t.Chdir(t.TempDir())

		if err := runApp(runner, "playlists"); err != nil {
			t.Fatalf("playlists failed: %v", err)
		}
		if !strings.Contains(output.String(), "RapCaviar") {
			t.Errorf("expected configured playlists, got %q", output.String())
		}
	})

	t.Run("loads the --config file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.toml")
		content := `
[credentials.spotify]
client_id = "id"
client_secret = "secret"

[[playlists]]
name = "Only"
id = "po"
`
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatalf("setup failed: %v", err)
		}

		output := &bytes.Buffer{}
		runner := newTestRunner(testCatalog(), output)
		if err := runApp(runner, "playlists", "--config", path); err != nil {
			t.Fatalf("playlists failed: %v", err)
		}
		if !strings.Contains(output.String(), "Only") || strings.Contains(output.String(), "RapCaviar") {
			t.Errorf("expected playlists from %s, got %q", path, output.String())
		}
	})
}

func TestCommands(t *testing.T) {
	t.Run("playlists", func(t *testing.T) {
		output := &bytes.Buffer{}
		if err := runApp(newTestRunner(testCatalog(), output), "playlists"); err != nil {
			t.Fatalf("playlists failed: %v", err)
		}
		for _, want := range []string{"Playlists (2)", " 1. Top 50 Japan", " 2. RapCaviar"} {
			if !strings.Contains(output.String(), want) {
				t.Errorf("expected %q in %q", want, output.String())
			}
		}
	})

	t.Run("playlists --json", func(t *testing.T) {
		output := &bytes.Buffer{}
		if err := runApp(newTestRunner(testCatalog(), output), "playlists", "--json"); err != nil {
			t.Fatalf("playlists failed: %v", err)
		}

		var decoded []models.Playlist
		if err := json.Unmarshal(output.Bytes(), &decoded); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if len(decoded) != 2 || decoded[1].Name != "RapCaviar" {
			t.Errorf("unexpected playlists %+v", decoded)
		}
	})

	t.Run("table to stdout defaults to the first playlist", func(t *testing.T) {
		output := &bytes.Buffer{}
		if err := runApp(newTestRunner(testCatalog(), output), "table", "--format", "csv"); err != nil {
			t.Fatalf("table failed: %v", err)
		}

		records, err := csv.NewReader(output).ReadAll()
		if err != nil {
			t.Fatalf("invalid CSV: %v", err)
		}
		if len(records) != 3 {
			t.Fatalf("expected header plus 2 tracks, got %d", len(records))
		}
		if records[1][1] != "Idol" || records[2][0] != "2" {
			t.Errorf("unexpected records %v", records)
		}
	})

	t.Run("table to file", func(t *testing.T) {
		output := &bytes.Buffer{}
		path := filepath.Join(t.TempDir(), "rap.md")
		err := runApp(newTestRunner(testCatalog(), output), "table", "-p", "RapCaviar", "-f", "md", "-o", path)
		if err != nil {
			t.Fatalf("table failed: %v", err)
		}

		th.AssertFileExists(t, path)
		if content := th.MustReadFile(t, path); !strings.Contains(content, "# RapCaviar") {
			t.Errorf("unexpected file content %q", content)
		}
		if !strings.Contains(output.String(), "Exported 1 tracks to "+path) {
			t.Errorf("unexpected output %q", output.String())
		}
	})

	t.Run("table rejects unknown format before fetching", func(t *testing.T) {
		catalog := testCatalog()
		err := runApp(newTestRunner(catalog, &bytes.Buffer{}), "table", "--format", "xml")
		if !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
		if catalog.ItemCalls() != 0 {
			t.Errorf("expected no catalog calls, got %d", catalog.ItemCalls())
		}
	})

	t.Run("table rejects unknown playlist", func(t *testing.T) {
		err := runApp(newTestRunner(testCatalog(), &bytes.Buffer{}), "table", "--playlist", "Nope")
		if !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("analyze one feature", func(t *testing.T) {
		output := &bytes.Buffer{}
		err := runApp(newTestRunner(testCatalog(), output), "analyze", "--feature", "energy", "--width", "10")
		if err != nil {
			t.Fatalf("analyze failed: %v", err)
		}

		out := output.String()
		for _, want := range []string{"Top 50 Japan (2 tracks)", "Density Heatmap", "1.00", "Distribution of Energy in Top 50 Songs"} {
			if !strings.Contains(out, want) {
				t.Errorf("expected %q in output\n%s", want, out)
			}
		}
		if strings.Contains(out, "Distribution of Tempo") {
			t.Error("expected only the energy histogram")
		}
	})

	t.Run("analyze all features", func(t *testing.T) {
		output := &bytes.Buffer{}
		if err := runApp(newTestRunner(testCatalog(), output), "analyze", "-p", "Top 50 Japan"); err != nil {
			t.Fatalf("analyze failed: %v", err)
		}
		if got := strings.Count(output.String(), "Distribution of "); got != len(models.AnalysisFeatures) {
			t.Errorf("expected %d histograms, got %d", len(models.AnalysisFeatures), got)
		}
	})

	t.Run("analyze rejects unknown feature", func(t *testing.T) {
		err := runApp(newTestRunner(testCatalog(), &bytes.Buffer{}), "analyze", "--feature", "loudness")
		if !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("catalog failures surface", func(t *testing.T) {
		catalog := testCatalog()
		catalog.FailItems(fmt.Errorf("%w: status 503", shared.ErrServiceUnavailable))

		err := runApp(newTestRunner(catalog, &bytes.Buffer{}), "analyze")
		if !errors.Is(err, shared.ErrServiceUnavailable) {
			t.Errorf("expected ErrServiceUnavailable, got %v", err)
		}
	})

	t.Run("setup config", func(t *testing.T) {
		output := &bytes.Buffer{}
		path := filepath.Join(t.TempDir(), "config.toml")
		runner := newTestRunner(testCatalog(), output)

		if err := runApp(runner, "setup", "config", "--config", path); err != nil {
			t.Fatalf("setup failed: %v", err)
		}
		th.AssertFileExists(t, path)
		if !strings.Contains(output.String(), "Configuration written to "+path) {
			t.Errorf("unexpected output %q", output.String())
		}

		if err := runApp(runner, "setup", "config", "--config", path); err == nil {
			t.Error("expected error when the config already exists")
		}
	})
}
