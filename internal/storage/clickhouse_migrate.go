package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/wallet-scanner/internal/logging"
)

// RunClickHouseMigrations applies the .sql files under migrationsPath
// in lexical order. Files are split into individual statements since
// ClickHouse executes one statement per call.
func RunClickHouseMigrations(db *ClickHouseDB, migrationsPath string) error {
	ctx := context.Background()

	files, err := os.ReadDir(migrationsPath)
	if err != nil {
		return fmt.Errorf("failed to read migrations directory: %w", err)
	}

	var sqlFiles []string
	for _, file := range files {
		if !file.IsDir() && strings.HasSuffix(file.Name(), ".sql") {
			sqlFiles = append(sqlFiles, file.Name())
		}
	}
	sort.Strings(sqlFiles)

	if len(sqlFiles) == 0 {
		logging.WithField("path", migrationsPath).Warn("no ClickHouse migration files found")
		return nil
	}

	for _, filename := range sqlFiles {
		filePath := filepath.Join(migrationsPath, filename)
		content, err := os.ReadFile(filePath) // #nosec G304 - filePath is constructed from trusted migrationsPath
		if err != nil {
			return fmt.Errorf("failed to read migration file %s: %w", filename, err)
		}

		for _, stmt := range splitSQLStatements(string(content)) {
			if err := db.Exec(ctx, stmt); err != nil {
				return fmt.Errorf("failed to execute statement in %s: %w", filename, err)
			}
		}

		logging.WithField("file", filename).Info("applied ClickHouse migration")
	}

	return nil
}

// splitSQLStatements splits SQL content on statement-terminating
// semicolons, dropping comment-only and empty lines.
func splitSQLStatements(content string) []string {
	var statements []string
	var currentStmt strings.Builder

	flush := func() {
		stmt := strings.TrimSuffix(strings.TrimSpace(currentStmt.String()), ";")
		if stmt != "" {
			statements = append(statements, stmt)
		}
		currentStmt.Reset()
	}

	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "--") {
			continue
		}

		currentStmt.WriteString(line)
		currentStmt.WriteString("\n")

		if strings.HasSuffix(trimmed, ";") {
			flush()
		}
	}
	flush()

	return statements
}
