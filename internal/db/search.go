package db

import (
	"context"
	"fmt"
	"strings"
	"threadly/internal/models"

	"gorm.io/gorm/clause"
)

// likeEscape is the LIKE escape character; it behaves the same on
// Postgres and SQLite.
const likeEscape = "!"

var likeReplacer = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

func escapeLike(s string) string {
	return likeReplacer.Replace(s)
}

// searchTerms lowercases the query and splits it on whitespace.
func searchTerms(query string) []string {
	return strings.Fields(strings.ToLower(query))
}

// rankExpr orders matches of column against the full query: exact match,
// then prefix, then substring, then everything else (all terms present but
// not contiguous). Ties break on shorter values.
func rankExpr(column, query, tail string) clause.OrderBy {
	q := strings.ToLower(strings.Join(strings.Fields(query), " "))
	esc := escapeLike(q)
	sql := fmt.Sprintf(
		"CASE WHEN LOWER(%[1]s) = ? THEN 0 WHEN LOWER(%[1]s) LIKE ? ESCAPE '%[2]s' THEN 1 WHEN LOWER(%[1]s) LIKE ? ESCAPE '%[2]s' THEN 2 ELSE 3 END, LENGTH(%[1]s), %[3]s",
		column, likeEscape, tail,
	)
	return clause.OrderBy{Expression: clause.Expr{
		SQL:                sql,
		Vars:               []interface{}{q, esc + "%", "%" + esc + "%"},
		WithoutParentheses: true,
	}}
}

// SearchCommunities runs a ranked search over community names. Every
// whitespace-separated term must occur in the name.
func (s *Store) SearchCommunities(ctx context.Context, query string, limit int) ([]models.Community, error) {
	terms := searchTerms(query)
	if len(terms) == 0 {
		return nil, nil
	}

	q := s.db.WithContext(ctx).Model(&models.Community{})
	for _, term := range terms {
		q = q.Where("LOWER(name) LIKE ? ESCAPE '"+likeEscape+"'", "%"+escapeLike(term)+"%")
	}

	var communities []models.Community
	err := q.Clauses(rankExpr("name", query, "name ASC")).
		Limit(limit).
		Find(&communities).Error
	if err != nil {
		return nil, fmt.Errorf("search communities: %w", err)
	}
	return communities, nil
}

// SearchPosts runs a ranked search over post subjects within one community.
func (s *Store) SearchPosts(ctx context.Context, query, communityID string, limit int) ([]models.Post, error) {
	terms := searchTerms(query)
	if len(terms) == 0 {
		return nil, nil
	}

	q := s.db.WithContext(ctx).Model(&models.Post{}).Where("community_id = ?", communityID)
	for _, term := range terms {
		q = q.Where("LOWER(subject) LIKE ? ESCAPE '"+likeEscape+"'", "%"+escapeLike(term)+"%")
	}

	var posts []models.Post
	err := q.Clauses(rankExpr("subject", query, "created_at DESC")).
		Limit(limit).
		Find(&posts).Error
	if err != nil {
		return nil, fmt.Errorf("search posts: %w", err)
	}
	return posts, nil
}
