package main

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/jamesainslie/tidy/pkg/tidy/filter"
)

// buildFilter creates a filter.Filter from the preview flags.
func buildFilter() (*filter.Filter, error) {
	var opts []filter.Option

	if limitVal := viper.GetInt("limit"); limitVal > 0 {
		opts = append(opts, filter.WithLimit(limitVal))
	}

	var minSize, maxSize int64
	if s := viper.GetString("min_size"); s != "" {
		n, err := filter.ParseSize(s)
		if err != nil {
			return nil, fmt.Errorf("invalid min-size %q: %w", s, err)
		}
		minSize = n
	}
	if s := viper.GetString("max_size"); s != "" {
		n, err := filter.ParseSize(s)
		if err != nil {
			return nil, fmt.Errorf("invalid max-size %q: %w", s, err)
		}
		maxSize = n
	}
	if maxSize > 0 && minSize > maxSize {
		return nil, fmt.Errorf("min-size %d is larger than max-size %d", minSize, maxSize)
	}
	if minSize > 0 || maxSize > 0 {
		opts = append(opts, filter.WithSizeRange(minSize, maxSize))
	}

	if s := viper.GetString("older_than"); s != "" {
		d, err := filter.ParseDuration(s)
		if err != nil {
			return nil, fmt.Errorf("invalid older-than %q: %w", s, err)
		}
		opts = append(opts, filter.WithOlderThan(d))
	}
	if s := viper.GetString("newer_than"); s != "" {
		d, err := filter.ParseDuration(s)
		if err != nil {
			return nil, fmt.Errorf("invalid newer-than %q: %w", s, err)
		}
		opts = append(opts, filter.WithNewerThan(d))
	}

	// File types expand to categories
	if s := viper.GetString("type"); s != "" {
		cats, err := filter.ParseTypeGroups(parseCommaSeparated(s)...)
		if err != nil {
			return nil, err
		}
		opts = append(opts, filter.WithCategories(cats...))
	}

	if s := viper.GetString("ext"); s != "" {
		opts = append(opts, filter.WithExtensions(parseCommaSeparated(s)...))
	}

	if s := viper.GetString("include"); s != "" {
		opts = append(opts, filter.WithInclude(parseCommaSeparated(s)...))
	}
	if exclude := viper.GetStringSlice("exclude"); len(exclude) > 0 {
		opts = append(opts, filter.WithExclude(exclude...))
	}

	sortField, err := filter.ParseSortField(viper.GetString("sort"))
	if err != nil {
		return nil, err
	}
	// Size lists largest first; --reverse flips every order.
	reverse := viper.GetBool("reverse")
	descending := reverse
	if sortField == filter.SortSize {
		descending = !reverse
	}
	opts = append(opts, filter.WithSortBy(sortField, descending))

	return filter.New(opts...), nil
}

// parseCommaSeparated splits a comma-separated string and trims whitespace.
func parseCommaSeparated(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}
