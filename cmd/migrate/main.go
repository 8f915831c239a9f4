// Migrate the database from one state to another
package main

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dense-analysis/stockwatch/internal/database"
	"github.com/dense-analysis/stockwatch/internal/env"
)

type MigrationExecutor struct {
	conn              *database.Conn
	directoryName     string
	migrationFileList []string
}

func NewMigrationExecutor(conn *database.Conn, directoryName string) (*MigrationExecutor, error) {
	fileList, err := os.ReadDir(directoryName)

	if err != nil {
		return nil, err
	}

	migrationFileList := make([]string, 0, len(fileList))

	for _, file := range fileList {
		if !file.IsDir() {
			migrationFileList = append(migrationFileList, file.Name())
		}
	}

	return &MigrationExecutor{conn, directoryName, migrationFileList}, nil
}

func (executor *MigrationExecutor) CreateMigrationTable() error {
	return executor.conn.Exec(
		`create table if not exists stock_migration (
			migration_number Int32
		) engine = MergeTree() order by migration_number`,
	)
}

func (executor *MigrationExecutor) CurrentMigration() (int, error) {
	row := executor.conn.QueryRow(
		"select coalesce(max(migration_number), 0) from stock_migration",
	)

	var migrationNumber int32
	err := row.Scan(&migrationNumber)

	return int(migrationNumber), err
}

func (executor *MigrationExecutor) applyMigration(migrationNumber int, reverse bool) (bool, error) {
	var matchedFilename string

	for _, filename := range executor.migrationFileList {
		splitList := strings.Split(filename, "_")
		fileMigrationNumber, _ := strconv.Atoi(splitList[0])
		isReverseFile := splitList[len(splitList)-1] == "reverse.sql"

		if migrationNumber == fileMigrationNumber && reverse == isReverseFile {
			matchedFilename = filepath.Join(executor.directoryName, filename)
			break
		}
	}

	if len(matchedFilename) == 0 {
		return true, nil
	}

	fmt.Printf("Applying migration: %s\n", matchedFilename)

	file, readErr := os.ReadFile(matchedFilename)

	if readErr != nil {
		return false, readErr
	}

	// ClickHouse runs one statement per query, so split the file up.
	queries := strings.Split(string(file), ";\n")

	for _, query := range queries {
		if strings.TrimSpace(query) == "" {
			continue
		}

		if err := executor.conn.Exec(query); err != nil {
			return false, err
		}
	}

	if reverse {
		return false, executor.conn.Exec(
			"delete from stock_migration where migration_number = ?",
			migrationNumber,
		)
	}

	return false, executor.conn.Exec(
		"insert into stock_migration (migration_number) values (?)",
		migrationNumber,
	)
}

func (executor *MigrationExecutor) ApplyMigrations(selectedMigrationNumber int) error {
	if err := executor.CreateMigrationTable(); err != nil {
		return err
	}

	startMigrationNumber, currentErr := executor.CurrentMigration()

	if currentErr != nil {
		return currentErr
	}

	reverse := false

	if selectedMigrationNumber < startMigrationNumber {
		reverse = true
	}

	for i := startMigrationNumber; i != selectedMigrationNumber; {
		if !reverse {
			i += 1
		}

		stop, err := executor.applyMigration(i, reverse)

		if reverse {
			i -= 1
		}

		if err != nil {
			return err
		}

		if stop {
			break
		}
	}

	return nil
}

func parseSelectedMigration() int {
	selectedMigration := math.MaxInt64

	if len(os.Args) > 2 {
		fmt.Fprintf(os.Stderr, "Too many arguments\n")
		os.Exit(1)
	}

	if len(os.Args) > 1 {
		var err error
		selectedMigration, err = strconv.Atoi(os.Args[1])

		if err != nil || selectedMigration < 0 {
			fmt.Fprintf(os.Stderr, "Invalid migration number: %s\n", os.Args[1])
			os.Exit(1)
		}
	}

	return selectedMigration
}

func main() {
	selectedMigration := parseSelectedMigration()

	env.LoadEnvironmentVariables()

	conn, connectionErr := database.Connect()

	if connectionErr != nil {
		fmt.Fprintf(os.Stderr, "Connection error: %s\n", connectionErr)
		os.Exit(1)
	}

	defer conn.Close()

	executor, executorErr := NewMigrationExecutor(conn, "migrations")

	if executorErr != nil {
		fmt.Fprintf(os.Stderr, "Error loading migrations: %s\n", executorErr)
		os.Exit(1)
	}

	if err := executor.ApplyMigrations(selectedMigration); err != nil {
		fmt.Fprintf(os.Stderr, "Error applying migration: %s\n", err)
		os.Exit(1)
	}
}
