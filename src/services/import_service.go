package services

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strconv"
	"time"

	"github.com/username/ledgerly/backend/src/logger"
	"github.com/username/ledgerly/backend/src/models"
	"github.com/username/ledgerly/backend/src/parsers"
	"github.com/username/ledgerly/backend/src/processors"
	"github.com/username/ledgerly/backend/src/store"
)

type importServiceImpl struct {
	transactions store.TransactionStore
	categories   store.CategoryStore
	rules        store.RuleStore
	uploads      store.UploadStore
	cache        *UserCache
}

func NewImportService(
	transactions store.TransactionStore,
	categories store.CategoryStore,
	rules store.RuleStore,
	uploads store.UploadStore,
	cache *UserCache,
) ImportService {
	return &importServiceImpl{
		transactions: transactions,
		categories:   categories,
		rules:        rules,
		uploads:      uploads,
		cache:        cache,
	}
}

func (s *importServiceImpl) ImportCSV(fileReader io.Reader, userID int64, fileName, source string) (*ImportResult, error) {
	startTime := time.Now()
	logger.L.Info("ImportCSV START", "userID", userID, "fileName", fileName, "source", source)

	rawData, err := io.ReadAll(fileReader)
	if err != nil {
		return nil, fmt.Errorf("%w: reading upload: %v", ErrParsingFailed, err)
	}

	upload := &models.CsvUpload{
		UserID:   userID,
		FileName: fileName,
		RawData:  string(rawData),
	}
	if err := s.uploads.Create(upload); err != nil {
		return nil, fmt.Errorf("%w: creating upload record: %v", ErrPersistenceFailed, err)
	}

	parser, err := parsers.GetParser(source)
	if err != nil {
		s.markFailed(upload.ID)
		return nil, fmt.Errorf("%w: %v", ErrParsingFailed, err)
	}

	candidates, rowErrors, err := parser.Parse(bytes.NewReader(rawData))
	if err != nil {
		s.markFailed(upload.ID)
		return nil, fmt.Errorf("%w: %v", ErrParsingFailed, err)
	}
	if len(candidates) == 0 {
		s.markFailed(upload.ID)
		return nil, fmt.Errorf("%w: %s", ErrNoParseableRows, fileName)
	}

	// Record the parsed row count up front so a FAILED upload still shows
	// how many rows the file had.
	if err := s.uploads.MarkProcessing(upload.ID, len(candidates)+len(rowErrors)); err != nil {
		return nil, fmt.Errorf("%w: marking upload processing: %v", ErrPersistenceFailed, err)
	}

	existing, err := s.transactions.FindDedupHashes(userID)
	if err != nil {
		s.markFailed(upload.ID)
		return nil, fmt.Errorf("%w: loading dedup hashes: %v", ErrPersistenceFailed, err)
	}
	toImport, batchDuplicates := processors.FilterDuplicates(existing, candidates)

	rules, err := s.cache.ApplicableRules(userID, s.rules)
	if err != nil {
		s.markFailed(upload.ID)
		return nil, fmt.Errorf("%w: loading rules: %v", ErrPersistenceFailed, err)
	}

	other, err := s.categories.FindOther(userID)
	if err != nil {
		s.markFailed(upload.ID)
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNoFallbackCategory
		}
		return nil, fmt.Errorf("%w: loading fallback category: %v", ErrPersistenceFailed, err)
	}

	items := make([]store.NewTransaction, 0, len(toImport))
	for _, c := range toImport {
		categoryID, _ := processors.Categorize(rules, c.Description, other.ID)
		items = append(items, store.NewTransaction{Candidate: c, CategoryID: categoryID})
	}

	inserted, raceDuplicates, err := s.transactions.InsertBatch(userID, upload.ID, items)
	if err != nil {
		s.markFailed(upload.ID)
		return nil, fmt.Errorf("%w: %v", ErrPersistenceFailed, err)
	}

	duplicates := len(batchDuplicates) + raceDuplicates
	skipped := len(rowErrors)
	totalRows := inserted + skipped + duplicates

	if err := s.uploads.Complete(upload.ID, totalRows); err != nil {
		return nil, fmt.Errorf("%w: completing upload: %v", ErrPersistenceFailed, err)
	}

	s.cache.InvalidateUser(userID)

	logger.L.Info("ImportCSV END",
		"userID", userID, "uploadRef", upload.UploadRef,
		"imported", inserted, "skipped", skipped, "duplicates", duplicates,
		"duration", time.Since(startTime))

	return &ImportResult{
		UploadRef:     upload.UploadRef,
		FileName:      fileName,
		TotalRows:     totalRows,
		ImportedRows:  inserted,
		SkippedRows:   skipped,
		DuplicateRows: duplicates,
		RowErrors:     rowErrors,
	}, nil
}

func (s *importServiceImpl) markFailed(uploadID int64) {
	if err := s.uploads.MarkStatus(uploadID, models.UploadStatusFailed); err != nil {
		logger.L.Error("Failed to mark upload as FAILED", "uploadID", uploadID, "error", err)
	}
}

func (s *importServiceImpl) ListUploads(userID int64) ([]models.CsvUpload, error) {
	return s.uploads.FindByUser(userID)
}

var statementYearRe = regexp.MustCompile(`(19|20)\d{2}`)

// AvailableYears scans uploaded filenames for four-digit years. Statement
// exports almost always carry the year in the name.
func (s *importServiceImpl) AvailableYears(userID int64) ([]int, error) {
	if years, found := s.cache.GetYears(userID); found {
		return years, nil
	}

	names, err := s.uploads.FileNames(userID)
	if err != nil {
		return nil, err
	}

	yearSet := make(map[int]struct{})
	for _, name := range names {
		for _, match := range statementYearRe.FindAllString(name, -1) {
			year, err := strconv.Atoi(match)
			if err != nil {
				continue
			}
			yearSet[year] = struct{}{}
		}
	}

	years := make([]int, 0, len(yearSet))
	for year := range yearSet {
		years = append(years, year)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(years)))

	s.cache.SetYears(userID, years)
	return years, nil
}
