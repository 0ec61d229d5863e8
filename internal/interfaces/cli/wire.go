package cli

import (
	"github.com/turtacn/compoundrank/internal/application/screening"
	"github.com/turtacn/compoundrank/internal/config"
	"github.com/turtacn/compoundrank/internal/domain/compound"
	"github.com/turtacn/compoundrank/internal/infrastructure/export/xlsx"
	"github.com/turtacn/compoundrank/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/compoundrank/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/compoundrank/internal/infrastructure/pubchem"
	"github.com/turtacn/compoundrank/internal/infrastructure/storage/minio"
)

// NewService wires the production stack: the PubChem client, the xlsx
// workbook store, and, when enabled, Prometheus textfile metrics and MinIO
// report publication.
func NewService(cfg *config.Config, logger logging.Logger) (screening.Service, error) {
	var metrics *prometheus.PipelineMetrics
	clientOpts := []pubchem.Option{
		pubchem.WithTimeout(cfg.Provider.Timeout),
		pubchem.WithRateLimit(cfg.Provider.RequestsPerSecond, cfg.Provider.Burst),
		pubchem.WithUserAgent(cfg.Provider.UserAgent),
		pubchem.WithLogger(logger.Named("pubchem")),
	}
	if cfg.Metrics.Enabled {
		collector, err := prometheus.NewMetricsCollector(prometheus.CollectorConfig{Namespace: cfg.Metrics.Namespace}, logger.Named("metrics"))
		if err != nil {
			return nil, err
		}
		metrics = prometheus.NewPipelineMetrics(collector)
		clientOpts = append(clientOpts, pubchem.WithObserver(metrics))
	}

	catalog := compound.DefaultCatalog()
	if !cfg.Pipeline.AllProperties {
		warnUnserved(cfg.Pipeline.Properties, catalog, logger)
	}

	provider, err := pubchem.NewClient(cfg.Provider.BaseURL, clientOpts...)
	if err != nil {
		return nil, err
	}

	var publisher minio.ReportPublisher
	if m := cfg.Storage.MinIO; m.Enabled {
		client, err := minio.NewClient(minio.Config{
			Endpoint:  m.Endpoint,
			AccessKey: m.AccessKey,
			SecretKey: m.SecretKey,
			Bucket:    m.Bucket,
			Prefix:    m.Prefix,
			UseSSL:    m.UseSSL,
			Region:    m.Region,
		}, logger)
		if err != nil {
			return nil, err
		}
		publisher = minio.NewReportPublisher(client, logger.Named("publisher"))
	}

	return screening.NewService(screening.Dependencies{
		Config:    cfg,
		Provider:  provider,
		Store:     xlsx.NewWorkbook(logger.Named("xlsx")),
		Catalog:   catalog,
		Publisher: publisher,
		Metrics:   metrics,
		Logger:    logger.Named("screening"),
	})
}

// warnUnserved flags selected catalog attributes PubChem's property endpoint
// does not serve; their columns stay empty.
func warnUnserved(properties []string, catalog *compound.Catalog, logger logging.Logger) {
	var unserved []string
	for _, p := range properties {
		name, ok := catalog.Match(p)
		if !ok || name == compound.IdentifierColumn || pubchem.Supported(name) {
			continue
		}
		unserved = append(unserved, name)
	}
	if len(unserved) > 0 {
		logger.Warn("selected properties are not served by pubchem and will be empty", logging.Strings("properties", unserved))
	}
}
