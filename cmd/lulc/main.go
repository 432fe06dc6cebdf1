// Command lulc runs the land-cover pipeline stages against a local
// scene archive, from compositing through training to area reports.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/urfave/cli"

	"github.com/aaronalt/gcc-lulc/internal/area"
	"github.com/aaronalt/gcc-lulc/internal/catalog"
	"github.com/aaronalt/gcc-lulc/internal/classify"
	"github.com/aaronalt/gcc-lulc/internal/export"
	"github.com/aaronalt/gcc-lulc/internal/pipeline"
	"github.com/aaronalt/gcc-lulc/internal/raster"
	"github.com/aaronalt/gcc-lulc/internal/sample"
	"github.com/aaronalt/gcc-lulc/internal/spectral"
	"github.com/aaronalt/gcc-lulc/internal/stats"
)

// tiffScale is the read-side scale of written composite bands, so a
// reflectance of 1.0 becomes DN 10000.
const tiffScale = 1.0 / 10000

func main() {
	app := cli.NewApp()
	app.Name = "lulc"
	app.Version = "0.1.0"
	app.Usage = "Land-use/land-cover classification over Landsat scene archives"
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "scenes",
			Value: "data/scenes",
			Usage: "Directory of scene folders, each with band TIFFs and a scene.json",
		},
		cli.StringFlag{
			Name:  "sensor",
			Value: "oli",
			Usage: "Sensor the scenes were acquired with: oli or tm",
		},
		cli.StringFlag{
			Name:  "collection",
			Value: "",
			Usage: "Restrict the search to one collection",
		},
		cli.StringFlag{
			Name:  "start",
			Value: "",
			Usage: "Earliest acquisition date (YYYY-MM-DD)",
		},
		cli.StringFlag{
			Name:  "end",
			Value: "",
			Usage: "Latest acquisition date (YYYY-MM-DD)",
		},
		cli.Float64Flag{
			Name:  "max-cloud",
			Value: 30,
			Usage: "Exclude scenes above this cloud cover percentage",
		},
		cli.IntFlag{
			Name:  "max-scenes",
			Value: 24,
			Usage: "Cap on how many scenes feed one composite",
		},
		cli.Float64Flag{
			Name:  "cell-size",
			Value: 30,
			Usage: "Grid cell size in metres",
		},
		cli.StringFlag{
			Name:  "elevation",
			Value: "",
			Usage: "Elevation TIFF covering the study area",
		},
		cli.StringFlag{
			Name:  "out",
			Value: "data/out",
			Usage: "Output directory",
		},
		cli.BoolFlag{
			Name:  "verbose",
			Usage: "Enable debug logging",
		},
	}
	app.Commands = []cli.Command{
		{
			Name:   "composite",
			Usage:  "Build a cloud-masked temporal median composite and write its bands",
			Action: runComposite,
		},
		{
			Name:  "train",
			Usage: "Train a classifier from labeled GeoJSON over the composite",
			Flags: []cli.Flag{
				cli.StringFlag{
					Name:  "training",
					Value: "data/training.geojson",
					Usage: "Labeled training polygons or points",
				},
				cli.StringFlag{
					Name:  "model",
					Value: "data/model.json",
					Usage: "Where to write the trained model",
				},
				cli.IntFlag{
					Name:  "neighbours",
					Value: 5,
					Usage: "Number of neighbours the classifier votes over",
				},
				cli.Float64Flag{
					Name:  "test-fraction",
					Value: 0.2,
					Usage: "Held-out share for accuracy evaluation",
				},
			},
			Action: runTrain,
		},
		{
			Name:  "classify",
			Usage: "Classify the composite and report per-class areas",
			Flags: []cli.Flag{
				cli.StringFlag{
					Name:  "model",
					Value: "data/model.json",
					Usage: "Trained model to classify with",
				},
			},
			Action: runClassify,
		},
		{
			Name:  "areas",
			Usage: "Tabulate per-class areas from an existing classified TIFF",
			Flags: []cli.Flag{
				cli.StringFlag{
					Name:  "classified",
					Value: "",
					Usage: "Classified TIFF produced by the classify command",
				},
			},
			Action: runAreas,
		},
		{
			Name:   "correlate",
			Usage:  "Write the feature band correlation matrix for the composite",
			Action: runCorrelate,
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func setupLogger(c *cli.Context) *slog.Logger {
	level := slog.LevelInfo
	if c.GlobalBool("verbose") {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func buildRequest(c *cli.Context) (pipeline.Request, error) {
	req := pipeline.Request{
		Sensor:     c.GlobalString("sensor"),
		Collection: c.GlobalString("collection"),
	}
	for _, d := range []struct {
		raw  string
		dest **time.Time
	}{
		{c.GlobalString("start"), &req.Start},
		{c.GlobalString("end"), &req.End},
	} {
		if d.raw == "" {
			continue
		}
		t, err := time.Parse("2006-01-02", d.raw)
		if err != nil {
			return req, fmt.Errorf("bad date %q: %w", d.raw, err)
		}
		*d.dest = &t
	}
	return req, nil
}

func buildRunner(c *cli.Context, logger *slog.Logger) *pipeline.Runner {
	source := catalog.NewDirSource(c.GlobalString("scenes")).WithLogger(logger)
	loader := catalog.NewLoader(raster.Georef{CellSize: c.GlobalFloat64("cell-size")}).WithLogger(logger)
	return pipeline.NewRunner(source, loader, pipeline.Options{
		MaxCloudCover: c.GlobalFloat64("max-cloud"),
		MaxScenes:     c.GlobalInt("max-scenes"),
		CellSize:      c.GlobalFloat64("cell-size"),
	}).WithLogger(logger)
}

func loadElevation(c *cli.Context) (*raster.Grid, error) {
	path := c.GlobalString("elevation")
	if path == "" {
		return nil, fmt.Errorf("missing commandline flag `--elevation`")
	}
	elev, err := raster.ReadBandFile(path, raster.BandFileOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to read elevation %s: %w", path, err)
	}
	return elev, nil
}

// enrichedComposite runs the search, composite and enrichment stages
// shared by the train, classify and correlate commands.
func enrichedComposite(c *cli.Context, logger *slog.Logger) (*raster.Image, int, error) {
	req, err := buildRequest(c)
	if err != nil {
		return nil, 0, err
	}
	elev, err := loadElevation(c)
	if err != nil {
		return nil, 0, err
	}
	runner := buildRunner(c, logger).WithElevation(elev)

	composite, n, err := runner.Composite(context.Background(), req)
	if err != nil {
		return nil, 0, err
	}
	enriched, err := runner.Enrich(composite, req.Sensor)
	if err != nil {
		return nil, 0, err
	}
	return enriched, n, nil
}

func outPath(c *cli.Context, name string) (string, error) {
	dir := c.GlobalString("out")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	return filepath.Join(dir, name), nil
}

func runComposite(c *cli.Context) error {
	logger := setupLogger(c)

	req, err := buildRequest(c)
	if err != nil {
		return err
	}
	runner := buildRunner(c, logger)

	composite, n, err := runner.Composite(context.Background(), req)
	if err != nil {
		return err
	}
	logger.Info("composite built", "scene_count", n, "bands", composite.NumBands())

	for _, band := range composite.BandNames() {
		g, _ := composite.Band(band)
		path, err := outPath(c, "composite_"+band+".tif")
		if err != nil {
			return err
		}
		if err := raster.WriteGridTIFF(path, g, tiffScale); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
		logger.Debug("band written", "path", path)
	}
	return nil
}

func runTrain(c *cli.Context) error {
	logger := setupLogger(c)

	enriched, _, err := enrichedComposite(c, logger)
	if err != nil {
		return err
	}

	raw, err := os.ReadFile(c.String("training"))
	if err != nil {
		return fmt.Errorf("failed to read training data: %w", err)
	}
	labels, err := sample.ParseLabeledGeoJSON(raw)
	if err != nil {
		return err
	}

	sensor, err := spectral.SensorByName(c.GlobalString("sensor"))
	if err != nil {
		return err
	}
	set, counts, err := sample.Extract(enriched, spectral.FeatureBands(sensor), labels)
	if err != nil {
		return err
	}
	for class, n := range counts {
		logger.Info("samples extracted", "class", class, "count", n)
	}

	train, test := set.Split(c.Float64("test-fraction"))
	model, err := classify.Train(train, c.Int("neighbours"))
	if err != nil {
		return err
	}

	if len(test.Rows) > 0 {
		eval, err := classify.Evaluate(model, test)
		if err != nil {
			return err
		}
		logger.Info("held-out evaluation",
			"total", eval.Total,
			"correct", eval.Correct,
			"accuracy", fmt.Sprintf("%.3f", eval.Accuracy),
		)
		for class, recall := range eval.Recall {
			logger.Info("per-class recall", "class", class, "recall", fmt.Sprintf("%.3f", recall))
		}
	}

	samplePath, err := outPath(c, "samples.csv")
	if err != nil {
		return err
	}
	f, err := os.Create(samplePath)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := export.WriteSampleCSV(f, set); err != nil {
		return err
	}

	if err := model.Save(c.String("model")); err != nil {
		return fmt.Errorf("failed to save model: %w", err)
	}
	logger.Info("model saved", "path", c.String("model"), "prototypes", len(model.Prototypes))
	return nil
}

func runClassify(c *cli.Context) error {
	logger := setupLogger(c)

	model, err := classify.Load(c.String("model"))
	if err != nil {
		return fmt.Errorf("failed to load model: %w", err)
	}

	enriched, n, err := enrichedComposite(c, logger)
	if err != nil {
		return err
	}
	logger.Info("composite enriched", "scene_count", n, "bands", enriched.NumBands())

	classified, err := model.ClassifyImage(enriched)
	if err != nil {
		return err
	}

	tiffPath, err := outPath(c, "classified.tif")
	if err != nil {
		return err
	}
	if err := export.WriteClassifiedTIFF(tiffPath, classified); err != nil {
		return err
	}

	pngPath, err := outPath(c, "classified.png")
	if err != nil {
		return err
	}
	pngFile, err := os.Create(pngPath)
	if err != nil {
		return err
	}
	defer pngFile.Close()
	if err := export.WriteClassifiedPNG(pngFile, classified); err != nil {
		return err
	}

	rows := area.Tabulate(classified, c.GlobalFloat64("cell-size"))
	return writeAreaReport(c, logger, rows)
}

func runAreas(c *cli.Context) error {
	logger := setupLogger(c)

	path := c.String("classified")
	if path == "" {
		return fmt.Errorf("missing commandline flag `--classified`")
	}
	// Masked pixels are written as class 0.
	noData := 0.0
	classified, err := raster.ReadBandFile(path, raster.BandFileOptions{NoData: &noData})
	if err != nil {
		return fmt.Errorf("failed to read classified raster: %w", err)
	}

	rows := area.Tabulate(classified, c.GlobalFloat64("cell-size"))
	return writeAreaReport(c, logger, rows)
}

func writeAreaReport(c *cli.Context, logger *slog.Logger, rows []area.ClassArea) error {
	for _, r := range rows {
		logger.Info("class area",
			"class", r.Class,
			"name", r.Name,
			"hectares", fmt.Sprintf("%.2f", r.Hectares),
			"percent", fmt.Sprintf("%.1f", r.Percent),
		)
	}

	path, err := outPath(c, "areas.csv")
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := export.WriteAreaCSV(f, rows); err != nil {
		return err
	}
	logger.Info("area report written", "path", path, "classes", len(rows))
	return nil
}

func runCorrelate(c *cli.Context) error {
	logger := setupLogger(c)

	enriched, _, err := enrichedComposite(c, logger)
	if err != nil {
		return err
	}

	sensor, err := spectral.SensorByName(c.GlobalString("sensor"))
	if err != nil {
		return err
	}
	matrix, err := stats.Correlation(enriched, spectral.FeatureBands(sensor))
	if err != nil {
		return err
	}

	path, err := outPath(c, "correlation.csv")
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := export.WriteCorrelationCSV(f, matrix); err != nil {
		return err
	}
	logger.Info("correlation matrix written", "path", path, "bands", len(matrix.Bands))
	return nil
}
