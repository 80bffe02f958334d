package app

import (
	"strings"

	"github.com/docparity/docparity-backend/internal/comparison"
	"github.com/docparity/docparity-backend/internal/logger"
	"github.com/docparity/docparity-backend/internal/utils"
)

type Config struct {
	ServiceName  string
	Environment  string
	Version      string
	AllowOrigins []string

	RulePackPath string

	BulkCap        int
	BulkWorkers    int
	MaxUploadBytes int64
	JobWorkerCount int

	Comparison comparison.Options
}

func LoadConfig(log *logger.Logger) Config {
	opts := comparison.DefaultOptions()
	opts.MetadataWeight = utils.GetEnvAsFloat("COMPARE_METADATA_WEIGHT", opts.MetadataWeight, log)
	opts.StructureWeight = utils.GetEnvAsFloat("COMPARE_STRUCTURE_WEIGHT", opts.StructureWeight, log)
	opts.ContentWeight = utils.GetEnvAsFloat("COMPARE_CONTENT_WEIGHT", opts.ContentWeight, log)
	opts.MatchThreshold = utils.GetEnvAsFloat("COMPARE_MATCH_THRESHOLD", opts.MatchThreshold, log)
	opts.IncompatibleThreshold = utils.GetEnvAsFloat("COMPARE_INCOMPATIBLE_THRESHOLD", opts.IncompatibleThreshold, log)
	opts.Normalization.Dates = utils.GetEnvAsBool("COMPARE_NORMALIZE_DATES", opts.Normalization.Dates, log)
	opts.Normalization.Currency = utils.GetEnvAsBool("COMPARE_NORMALIZE_CURRENCY", opts.Normalization.Currency, log)

	origins := []string{}
	for _, o := range strings.Split(utils.GetEnv("CORS_ALLOW_ORIGINS", "http://localhost:3000,http://localhost:5173", log), ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}

	return Config{
		ServiceName:    utils.GetEnv("SERVICE_NAME", "docparity", log),
		Environment:    utils.GetEnv("ENVIRONMENT", "development", log),
		Version:        utils.GetEnv("SERVICE_VERSION", "dev", log),
		AllowOrigins:   origins,
		RulePackPath:   utils.GetEnv("RULE_PACK_PATH", "", log),
		BulkCap:        utils.GetEnvAsInt("BULK_EXTRACT_CAP", 50, log),
		BulkWorkers:    utils.GetEnvAsInt("BULK_EXTRACT_WORKERS", 4, log),
		MaxUploadBytes: int64(utils.GetEnvAsInt("MAX_UPLOAD_BYTES", 25<<20, log)),
		JobWorkerCount: utils.GetEnvAsInt("JOB_WORKER_COUNT", 2, log),
		Comparison:     opts,
	}
}
