package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"vehicle-intel/pkg/models"
	"vehicle-intel/pkg/storage"
)

// readArticle loads an article from a JSON or YAML file and normalizes it.
func readArticle(path string) (*models.Article, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read article: %w", err)
	}

	var raw any
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(content, &raw)
	default:
		err = json.Unmarshal(content, &raw)
	}
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	return models.Normalize(raw), nil
}

func writeArticle(path string, a *models.Article) error {
	data, err := storage.Encode(a)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write article: %w", err)
	}
	return nil
}
