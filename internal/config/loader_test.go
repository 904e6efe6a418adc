package config_test

import (
	"os"
	"path/filepath"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/jcortez/swinglab/internal/config"
	"github.com/jcortez/swinglab/internal/domain/scoring"
)

func TestLoad(t *testing.T) {
	Convey("Given a clean environment", t, func() {
		os.Unsetenv("SWINGLAB_CONFIG")
		os.Unsetenv("SWINGLAB_ADDR")
		os.Unsetenv("SWINGLAB_QUEUE_SIZE")
		os.Unsetenv("SWINGLAB_LOG_LEVEL")

		Convey("Then defaults load and validate", func() {
			cfg, err := config.Load()
			So(err, ShouldBeNil)
			So(cfg.Addr, ShouldEqual, ":8090")
			So(cfg.QueueSize, ShouldEqual, 1024)
			So(cfg.CardCount, ShouldEqual, 3)
			So(cfg.ConfidenceFloor, ShouldEqual, 0.45)
		})

		Convey("When a YAML file overlays the defaults", func() {
			dir := t.TempDir()
			path := filepath.Join(dir, "config.yaml")
			So(os.WriteFile(path, []byte("addr: \":9191\"\nqueue_size: 64\n"), 0o600), ShouldBeNil)
			os.Setenv("SWINGLAB_CONFIG", path)
			defer os.Unsetenv("SWINGLAB_CONFIG")

			cfg, err := config.Load()
			So(err, ShouldBeNil)
			So(cfg.Addr, ShouldEqual, ":9191")
			So(cfg.QueueSize, ShouldEqual, 64)
			So(cfg.CardCount, ShouldEqual, 3)
		})

		Convey("When env vars overlay the file", func() {
			dir := t.TempDir()
			path := filepath.Join(dir, "config.yaml")
			So(os.WriteFile(path, []byte("addr: \":9191\"\n"), 0o600), ShouldBeNil)
			os.Setenv("SWINGLAB_CONFIG", path)
			os.Setenv("SWINGLAB_ADDR", ":7777")
			defer os.Unsetenv("SWINGLAB_CONFIG")
			defer os.Unsetenv("SWINGLAB_ADDR")

			cfg, err := config.Load()
			So(err, ShouldBeNil)
			So(cfg.Addr, ShouldEqual, ":7777")
		})

		Convey("When the file path does not exist", func() {
			os.Setenv("SWINGLAB_CONFIG", "/does/not/exist.yaml")
			defer os.Unsetenv("SWINGLAB_CONFIG")

			_, err := config.Load()
			So(err, ShouldWrap, config.ErrLoadConfig)
		})

		Convey("When a value fails validation", func() {
			os.Setenv("SWINGLAB_QUEUE_SIZE", "-5")
			defer os.Unsetenv("SWINGLAB_QUEUE_SIZE")

			_, err := config.Load()
			So(err, ShouldWrap, config.ErrInvalidConfig)
		})
	})
}

func TestLoadMetricSpecs(t *testing.T) {
	Convey("Given no spec path", t, func() {
		specs, err := config.LoadMetricSpecs("")
		So(err, ShouldBeNil)

		Convey("Then the built-in set covers every metric with valid specs", func() {
			So(specs, ShouldHaveLength, 11)
			for name, spec := range specs {
				So(spec.Validate(), ShouldBeNil)
				So(name, ShouldNotBeEmpty)
			}
		})
	})

	Convey("Given a valid spec file", t, func() {
		dir := t.TempDir()
		path := filepath.Join(dir, "specs.yaml")
		body := `
metrics:
  head_drift_cm:
    target: [0, 8]
    weight: 1.5
    invert: true
  attack_angle_deg:
    target: [6, 18]
    weight: 1.0
  bat_lag_deg:
    target: [60, 95]
    weight: 0.8
    abs_window: true
`
		So(os.WriteFile(path, []byte(body), 0o600), ShouldBeNil)

		specs, err := config.LoadMetricSpecs(path)
		So(err, ShouldBeNil)

		Convey("Then flags fold into the tolerance shapes", func() {
			So(specs, ShouldHaveLength, 3)
			So(specs["head_drift_cm"].Shape, ShouldEqual, scoring.ToleranceInverted)
			So(specs["attack_angle_deg"].Shape, ShouldEqual, scoring.ToleranceBand)
			So(specs["bat_lag_deg"].Shape, ShouldEqual, scoring.ToleranceCentered)
			So(specs["head_drift_cm"].Max, ShouldEqual, 8)
		})
	})

	Convey("Given conflicting polarity flags", t, func() {
		dir := t.TempDir()
		path := filepath.Join(dir, "specs.yaml")
		body := `
metrics:
  head_drift_cm:
    target: [0, 8]
    weight: 1.0
    invert: true
    abs_window: true
`
		So(os.WriteFile(path, []byte(body), 0o600), ShouldBeNil)

		_, err := config.LoadMetricSpecs(path)

		Convey("Then the combination is rejected, not guessed at", func() {
			So(err, ShouldWrap, config.ErrInvalidSpecs)
		})
	})

	Convey("Given a malformed target", t, func() {
		dir := t.TempDir()
		path := filepath.Join(dir, "specs.yaml")
		So(os.WriteFile(path, []byte("metrics:\n  m:\n    target: [1]\n"), 0o600), ShouldBeNil)

		_, err := config.LoadMetricSpecs(path)
		So(err, ShouldWrap, config.ErrInvalidSpecs)
	})

	Convey("Given an empty spec file", t, func() {
		dir := t.TempDir()
		path := filepath.Join(dir, "specs.yaml")
		So(os.WriteFile(path, []byte("metrics: {}\n"), 0o600), ShouldBeNil)

		_, err := config.LoadMetricSpecs(path)
		So(err, ShouldWrap, config.ErrInvalidSpecs)
	})
}
