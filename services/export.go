package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"cyber-news-digest/internal/logger"
	"cyber-news-digest/models"
)

// ExportService writes digest files from the stored corpus: a markdown
// digest suitable for feeding downstream agents, and an Excel workbook
// with per-article coverage.
type ExportService struct {
	query  *QueryService
	outDir string
}

func NewExportService(query *QueryService, outDir string) *ExportService {
	return &ExportService{query: query, outDir: outDir}
}

// ExportMarkdown writes all articles, grouped by source type, to a
// timestamped markdown file and returns its path.
func (es *ExportService) ExportMarkdown(ctx context.Context) (string, error) {
	articles, err := es.query.ListArticles(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to load articles: %w", err)
	}

	bySource := make(map[string][]models.Article)
	for _, article := range articles {
		sourceType := article.SourceType
		if sourceType == "" {
			sourceType = "unknown"
		}
		bySource[sourceType] = append(bySource[sourceType], article)
	}
	sourceTypes := make([]string, 0, len(bySource))
	for sourceType := range bySource {
		sourceTypes = append(sourceTypes, sourceType)
	}
	sort.Strings(sourceTypes)

	var sb strings.Builder
	sb.WriteString("# Cybersecurity News Articles\n\n")
	sb.WriteString(fmt.Sprintf("Generated on: %s\n\n", time.Now().Format("2006-01-02 15:04:05")))

	count := 0
	for _, sourceType := range sourceTypes {
		sb.WriteString(fmt.Sprintf("## Source: %s\n\n", sourceType))
		for _, article := range bySource[sourceType] {
			count++
			es.writeArticleMarkdown(ctx, &sb, article, count)
		}
	}

	path := filepath.Join(es.outDir, fmt.Sprintf("cybersecurity_articles_%s.md", time.Now().Format("20060102_150405")))
	if err := os.MkdirAll(es.outDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create export directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(sb.String()), 0o644); err != nil {
		return "", fmt.Errorf("failed to write markdown export: %w", err)
	}

	logger.Info("markdown export written", "path", path, "articles", count)
	return path, nil
}

func (es *ExportService) writeArticleMarkdown(ctx context.Context, sb *strings.Builder, article models.Article, index int) {
	title := orDefault(article.Title, "No Title")
	content := orDefault(article.Content, "No content available")
	tags := "No Tags"
	if len(article.Tags) > 0 {
		tags = strings.Join(article.Tags, ", ")
	}

	fmt.Fprintf(sb, "## %d. %s\n\n", index, title)
	fmt.Fprintf(sb, "**Source:** %s  \n", orDefault(article.Source, "Unknown Source"))
	fmt.Fprintf(sb, "**Date:** %s  \n", orDefault(article.Date, "No Date"))
	fmt.Fprintf(sb, "**URL:** %s  \n", orDefault(article.URL, "No URL"))
	fmt.Fprintf(sb, "**ID:** %s  \n", article.ID)
	fmt.Fprintf(sb, "**Tags:** %s\n\n", tags)
	fmt.Fprintf(sb, "### Content:\n\n%s\n\n", content)

	// Derived documents are optional; enrichment errors only skip them.
	enriched, err := es.query.GetEnriched(ctx, article.ID)
	if err == nil {
		if enriched.Summary != nil && enriched.Summary.Summary != "" {
			fmt.Fprintf(sb, "### Summary:\n\n%s\n\n", enriched.Summary.Summary)
		}
		if enriched.Tips != nil {
			writeTipsMarkdown(sb, enriched.Tips.Tips)
		}
	}

	sb.WriteString("---\n\n")
}

func writeTipsMarkdown(sb *strings.Builder, tips models.TipsPayload) {
	if tips.Summary == "" && len(tips.Dos) == 0 && len(tips.Donts) == 0 {
		return
	}
	sb.WriteString("### CISO Tips:\n\n")
	if tips.Summary != "" {
		fmt.Fprintf(sb, "%s\n\n", tips.Summary)
	}
	if len(tips.Dos) > 0 {
		sb.WriteString("**Do:**\n\n")
		for _, item := range tips.Dos {
			fmt.Fprintf(sb, "- %s\n", item)
		}
		sb.WriteString("\n")
	}
	if len(tips.Donts) > 0 {
		sb.WriteString("**Don't:**\n\n")
		for _, item := range tips.Donts {
			fmt.Fprintf(sb, "- %s\n", item)
		}
		sb.WriteString("\n")
	}
}

// ExportCoverageWorkbook writes an Excel workbook with one row per article
// noting which derived documents it has, plus a totals sheet.
func (es *ExportService) ExportCoverageWorkbook(ctx context.Context) (string, error) {
	articles, err := es.query.ListArticles(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to load articles: %w", err)
	}
	coverage, err := es.query.ListCoverage(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to compute coverage: %w", err)
	}

	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			logger.Warn("failed to close workbook", "error", err)
		}
	}()

	sheetName := "Articles"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return "", fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	headers := []string{"ID", "Title", "Source", "Source Type", "Date", "URL", "Has Summary", "Has Tips"}
	for i, header := range headers {
		cell := fmt.Sprintf("%c1", 'A'+i)
		f.SetCellValue(sheetName, cell, header)
	}

	for rowIdx, article := range articles {
		row := rowIdx + 2

		hasSummary, hasTips := false, false
		if enriched, err := es.query.GetEnriched(ctx, article.ID); err == nil {
			hasSummary = enriched.Summary != nil
			hasTips = enriched.Tips != nil
		}

		f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), article.ID)
		f.SetCellValue(sheetName, fmt.Sprintf("B%d", row), article.Title)
		f.SetCellValue(sheetName, fmt.Sprintf("C%d", row), article.Source)
		f.SetCellValue(sheetName, fmt.Sprintf("D%d", row), article.SourceType)
		f.SetCellValue(sheetName, fmt.Sprintf("E%d", row), article.Date)
		f.SetCellValue(sheetName, fmt.Sprintf("F%d", row), article.URL)
		f.SetCellValue(sheetName, fmt.Sprintf("G%d", row), hasSummary)
		f.SetCellValue(sheetName, fmt.Sprintf("H%d", row), hasTips)
	}

	for i := range headers {
		col := fmt.Sprintf("%c:%c", 'A'+i, 'A'+i)
		f.SetColWidth(sheetName, col, col, 18)
	}

	summarySheetName := "Coverage"
	if _, err := f.NewSheet(summarySheetName); err != nil {
		return "", fmt.Errorf("failed to create coverage sheet: %w", err)
	}
	summaryData := [][]interface{}{
		{"Coverage Report"},
		{"Export Date", time.Now().Format("2006-01-02 15:04:05")},
		{""},
		{"Total Articles", coverage.TotalArticles},
		{"With Summary", coverage.WithSummary},
		{"With Tips", coverage.WithTips},
	}
	for i, rowData := range summaryData {
		for j, cell := range rowData {
			cellRef := fmt.Sprintf("%c%d", 'A'+j, i+1)
			f.SetCellValue(summarySheetName, cellRef, cell)
		}
	}

	path := filepath.Join(es.outDir, fmt.Sprintf("coverage_%s.xlsx", time.Now().Format("20060102_150405")))
	if err := os.MkdirAll(es.outDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create export directory: %w", err)
	}
	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("failed to save workbook: %w", err)
	}

	logger.Info("coverage workbook written", "path", path, "articles", len(articles))
	return path, nil
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
