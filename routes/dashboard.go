package routes

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"cyber-news-digest/internal/store"
	"cyber-news-digest/services"
)

// SetupDashboardRoutes mounts the read-only API the dashboard consumes.
// Writes go through the scraper and maintenance CLIs, not this surface.
func SetupDashboardRoutes(router *gin.Engine, query *services.QueryService, auditor *services.Auditor) {
	api := router.Group("/api")
	{
		api.GET("/articles", ListArticles(query))
		api.GET("/articles/:articleID", GetArticle(query))
		api.GET("/coverage", GetCoverage(query))
		api.GET("/audit", RunAudit(auditor))
	}
}

// ListArticles returns a page of stored articles.
func ListArticles(query *services.QueryService) gin.HandlerFunc {
	return func(c *gin.Context) {
		pageStr := c.DefaultQuery("page", "1")
		pageSizeStr := c.DefaultQuery("page_size", "20")

		page, err := strconv.Atoi(pageStr)
		if err != nil || page < 1 {
			page = 1
		}
		pageSize, err := strconv.Atoi(pageSizeStr)
		if err != nil || pageSize < 1 || pageSize > 100 {
			pageSize = 20
		}

		articles, err := query.ListArticles(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error_code": "query_failed",
				"message":    "Failed to list articles",
			})
			return
		}

		total := len(articles)
		start := (page - 1) * pageSize
		if start > total {
			start = total
		}
		end := start + pageSize
		if end > total {
			end = total
		}

		totalPages := (total + pageSize - 1) / pageSize
		c.JSON(http.StatusOK, gin.H{
			"articles": articles[start:end],
			"pagination": gin.H{
				"page":        page,
				"page_size":   pageSize,
				"total":       total,
				"total_pages": totalPages,
			},
		})
	}
}

// GetArticle returns one article together with its summary and tips when
// they exist.
func GetArticle(query *services.QueryService) gin.HandlerFunc {
	return func(c *gin.Context) {
		articleID := c.Param("articleID")

		enriched, err := query.GetEnriched(c.Request.Context(), articleID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{
					"error_code": "article_not_found",
					"message":    "Article not found",
				})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{
				"error_code": "query_failed",
				"message":    "Failed to load article",
			})
			return
		}

		c.JSON(http.StatusOK, enriched)
	}
}

// GetCoverage reports how many articles have derived documents.
func GetCoverage(query *services.QueryService) gin.HandlerFunc {
	return func(c *gin.Context) {
		coverage, err := query.ListCoverage(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error_code": "coverage_failed",
				"message":    "Failed to compute coverage",
			})
			return
		}

		c.JSON(http.StatusOK, coverage)
	}
}

// RunAudit scans the collections and reports anomalies without changing
// anything. Repairs run through the maintenance CLI.
func RunAudit(auditor *services.Auditor) gin.HandlerFunc {
	return func(c *gin.Context) {
		anomalies, err := auditor.Audit(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error_code": "audit_failed",
				"message":    "Failed to run audit",
			})
			return
		}

		byKind := make(map[string]int)
		for _, anomaly := range anomalies {
			byKind[string(anomaly.Kind)]++
		}

		c.JSON(http.StatusOK, gin.H{
			"anomalies":    anomalies,
			"total":        len(anomalies),
			"by_kind":      byKind,
			"generated_at": time.Now(),
		})
	}
}
