package app

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"docuquery/internal/config"
	"docuquery/internal/model"
)

var (
	ErrInvalidInput    = errors.New("invalid input")
	ErrBadSetting      = errors.New("invalid setting value")
	ErrSettingNotFound = errors.New("setting not found")
)

// Runtime setting keys. Administrators change these through the settings
// surface; the query path re-reads them on every call.
const (
	SettingSimilarityThreshold = "rag_similarity_threshold"
	SettingMaxChunks           = "rag_max_chunks"
	SettingMaxContextChars     = "rag_max_context_chars"
	SettingChunkSize           = "rag_chunk_size"
	SettingChunkOverlap        = "rag_chunk_overlap"
	SettingAllowHardCut        = "rag_allow_hard_cut"
	SettingLLMModel            = "rag_llm_model"
	SettingTemperature         = "rag_temperature"
	SettingMaxTokens           = "rag_max_tokens"
	SettingIncludeMetadata     = "rag_include_metadata"
)

// RAGConfig is the snapshot of runtime settings one query or ingest run
// operates under.
type RAGConfig struct {
	SimilarityThreshold float64
	MaxChunks           int
	MaxContextChars     int
	ChunkSize           int
	ChunkOverlap        int
	AllowHardCut        bool
	LLMModel            string
	Temperature         float64
	MaxTokens           int
	IncludeMetadata     bool
}

// SettingsCache is the read-through cache in front of the settings table.
type SettingsCache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// SettingStore is the persistence behind the settings surface, satisfied by
// repository.SettingRepository.
type SettingStore interface {
	GetByKey(key string) (*model.Setting, error)
	List() ([]model.Setting, error)
	UpsertValue(key, value string) error
	SeedDefaults(defaults []model.Setting) error
}

type SettingsService struct {
	repo  SettingStore
	cache SettingsCache
}

func NewSettingsService(repo SettingStore, cache SettingsCache) *SettingsService {
	return &SettingsService{repo: repo, cache: cache}
}

// SeedDefaults inserts missing settings from the file config without
// overwriting values an administrator already changed.
func (s *SettingsService) SeedDefaults(defaults config.RAGDefaults, llmModel string) error {
	entries := []model.Setting{
		{Key: SettingSimilarityThreshold, Value: formatFloat(defaults.SimilarityThreshold), ValueType: model.SettingTypeFloat,
			Description: "Minimum cosine similarity for a chunk to count as relevant."},
		{Key: SettingMaxChunks, Value: strconv.Itoa(defaults.MaxChunks), ValueType: model.SettingTypeInt,
			Description: "Maximum retrieved chunks per query."},
		{Key: SettingMaxContextChars, Value: strconv.Itoa(defaults.MaxContextChars), ValueType: model.SettingTypeInt,
			Description: "Character budget for the assembled context block."},
		{Key: SettingChunkSize, Value: strconv.Itoa(defaults.ChunkSize), ValueType: model.SettingTypeInt,
			Description: "Target chunk size in characters."},
		{Key: SettingChunkOverlap, Value: strconv.Itoa(defaults.ChunkOverlap), ValueType: model.SettingTypeInt,
			Description: "Characters of overlap between consecutive chunks."},
		{Key: SettingAllowHardCut, Value: strconv.FormatBool(defaults.AllowHardCut), ValueType: model.SettingTypeBool,
			Description: "Cut mid-word when a chunk window contains no whitespace; otherwise widen to the next space."},
		{Key: SettingLLMModel, Value: llmModel, ValueType: model.SettingTypeString,
			Description: "Default LLM model identifier."},
		{Key: SettingTemperature, Value: formatFloat(defaults.Temperature), ValueType: model.SettingTypeFloat,
			Description: "Sampling temperature for answer generation."},
		{Key: SettingMaxTokens, Value: strconv.Itoa(defaults.MaxTokens), ValueType: model.SettingTypeInt,
			Description: "Maximum output tokens per answer."},
		{Key: SettingIncludeMetadata, Value: strconv.FormatBool(defaults.IncludeMetadata), ValueType: model.SettingTypeBool,
			Description: "Prefix context blocks with document name and chunk position."},
	}
	return s.repo.SeedDefaults(entries)
}

func (s *SettingsService) List() ([]model.Setting, error) {
	return s.repo.List()
}

// Get returns the current value of a setting, cache first.
func (s *SettingsService) Get(ctx context.Context, key string) (string, error) {
	if s.cache != nil {
		if value, hit, err := s.cache.Get(ctx, key); err == nil && hit {
			return value, nil
		}
	}
	setting, err := s.repo.GetByKey(key)
	if err != nil {
		return "", err
	}
	if setting == nil {
		return "", fmt.Errorf("%w: %s", ErrSettingNotFound, key)
	}
	if s.cache != nil {
		_ = s.cache.Set(ctx, key, setting.Value)
	}
	return setting.Value, nil
}

// Set validates and stores a new value, then invalidates the cache so the
// next query reads it fresh. Invalid combinations (overlap >= size,
// thresholds outside [0,1]) are rejected here, not discovered at query time.
func (s *SettingsService) Set(ctx context.Context, key, value string) error {
	value = strings.TrimSpace(value)
	if value == "" {
		return fmt.Errorf("%w: empty value for %s", ErrBadSetting, key)
	}
	if err := s.validate(ctx, key, value); err != nil {
		return err
	}
	if err := s.repo.UpsertValue(key, value); err != nil {
		return err
	}
	if s.cache != nil {
		_ = s.cache.Delete(ctx, key)
	}
	return nil
}

func (s *SettingsService) validate(ctx context.Context, key, value string) error {
	switch key {
	case SettingSimilarityThreshold:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil || f < 0 || f > 1 {
			return fmt.Errorf("%w: %s must be a float in [0, 1]", ErrBadSetting, key)
		}
	case SettingTemperature:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil || f < 0 || f > 2 {
			return fmt.Errorf("%w: %s must be a float in [0, 2]", ErrBadSetting, key)
		}
	case SettingMaxChunks, SettingMaxContextChars, SettingMaxTokens:
		n, err := strconv.Atoi(value)
		if err != nil || n <= 0 {
			return fmt.Errorf("%w: %s must be a positive integer", ErrBadSetting, key)
		}
	case SettingChunkSize:
		n, err := strconv.Atoi(value)
		if err != nil || n <= 0 {
			return fmt.Errorf("%w: %s must be a positive integer", ErrBadSetting, key)
		}
		if overlap, oerr := s.intSetting(ctx, SettingChunkOverlap, 0); oerr == nil && overlap >= n {
			return fmt.Errorf("%w: chunk size %d must exceed overlap %d", ErrBadSetting, n, overlap)
		}
	case SettingChunkOverlap:
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return fmt.Errorf("%w: %s must be a non-negative integer", ErrBadSetting, key)
		}
		if size, serr := s.intSetting(ctx, SettingChunkSize, 0); serr == nil && n >= size {
			return fmt.Errorf("%w: chunk overlap %d must be below chunk size %d", ErrBadSetting, n, size)
		}
	case SettingAllowHardCut, SettingIncludeMetadata:
		if _, err := strconv.ParseBool(value); err != nil {
			return fmt.Errorf("%w: %s must be a boolean", ErrBadSetting, key)
		}
	case SettingLLMModel:
		// any non-empty string
	default:
		return fmt.Errorf("%w: unknown setting %s", ErrSettingNotFound, key)
	}
	return nil
}

// RAGConfig reads the full runtime snapshot. Called at the start of every
// query and every ingest run so administrator changes apply immediately.
func (s *SettingsService) RAGConfig(ctx context.Context) (RAGConfig, error) {
	cfg := RAGConfig{}
	var err error

	if cfg.SimilarityThreshold, err = s.floatSetting(ctx, SettingSimilarityThreshold, 0.7); err != nil {
		return cfg, err
	}
	if cfg.MaxChunks, err = s.intSetting(ctx, SettingMaxChunks, 5); err != nil {
		return cfg, err
	}
	if cfg.MaxContextChars, err = s.intSetting(ctx, SettingMaxContextChars, 4000); err != nil {
		return cfg, err
	}
	if cfg.ChunkSize, err = s.intSetting(ctx, SettingChunkSize, 512); err != nil {
		return cfg, err
	}
	if cfg.ChunkOverlap, err = s.intSetting(ctx, SettingChunkOverlap, 64); err != nil {
		return cfg, err
	}
	if cfg.AllowHardCut, err = s.boolSetting(ctx, SettingAllowHardCut, true); err != nil {
		return cfg, err
	}
	if cfg.LLMModel, err = s.Get(ctx, SettingLLMModel); err != nil {
		return cfg, err
	}
	if cfg.Temperature, err = s.floatSetting(ctx, SettingTemperature, 0.7); err != nil {
		return cfg, err
	}
	if cfg.MaxTokens, err = s.intSetting(ctx, SettingMaxTokens, 1000); err != nil {
		return cfg, err
	}
	if cfg.IncludeMetadata, err = s.boolSetting(ctx, SettingIncludeMetadata, true); err != nil {
		return cfg, err
	}

	if cfg.ChunkOverlap >= cfg.ChunkSize {
		return cfg, fmt.Errorf("%w: chunk overlap %d must be below chunk size %d",
			ErrBadSetting, cfg.ChunkOverlap, cfg.ChunkSize)
	}
	return cfg, nil
}

func (s *SettingsService) intSetting(ctx context.Context, key string, fallback int) (int, error) {
	raw, err := s.Get(ctx, key)
	if err != nil {
		if errors.Is(err, ErrSettingNotFound) {
			return fallback, nil
		}
		return 0, err
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("%w: %s is not an integer: %q", ErrBadSetting, key, raw)
	}
	return n, nil
}

func (s *SettingsService) floatSetting(ctx context.Context, key string, fallback float64) (float64, error) {
	raw, err := s.Get(ctx, key)
	if err != nil {
		if errors.Is(err, ErrSettingNotFound) {
			return fallback, nil
		}
		return 0, err
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s is not a float: %q", ErrBadSetting, key, raw)
	}
	return f, nil
}

func (s *SettingsService) boolSetting(ctx context.Context, key string, fallback bool) (bool, error) {
	raw, err := s.Get(ctx, key)
	if err != nil {
		if errors.Is(err, ErrSettingNotFound) {
			return fallback, nil
		}
		return false, err
	}
	b, err := strconv.ParseBool(strings.TrimSpace(raw))
	if err != nil {
		return false, fmt.Errorf("%w: %s is not a boolean: %q", ErrBadSetting, key, raw)
	}
	return b, nil
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
