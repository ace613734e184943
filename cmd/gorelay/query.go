package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/Alp4ka/gorelay"
	"github.com/Alp4ka/gorelay/social"
)

// session is everything one command invocation needs to run a pass.
type session struct {
	cfg      Config
	logger   *logrus.Logger
	db       *gorm.DB
	pass     *gorelay.Pass
	registry *prometheus.Registry
	resolver *social.Resolver
}

func newSession(cmd *cobra.Command) (*session, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	logger := newLogger(cfg)
	db, err := openDatabase(cfg, logger)
	if err != nil {
		return nil, err
	}

	registry := prometheus.NewRegistry()
	store := social.RegisterKinds(gorelay.NewGORMStore(db))
	pass := gorelay.NewPass(store).
		WithLogger(logger).
		WithMetrics(gorelay.NewMetrics(registry))

	return &session{
		cfg:      cfg,
		logger:   logger,
		db:       db,
		pass:     pass,
		registry: registry,
		resolver: social.NewResolver(db, pass).WithLimits(cfg.DefaultLimit, cfg.MaxLimit),
	}, nil
}

// Close releases the database connections of the session.
func (s *session) Close() error {
	return closeDatabase(s.db)
}

func (s *session) close() {
	if err := s.Close(); err != nil {
		s.logger.WithError(err).Warn("cannot close database")
	}
}

// logMetrics writes the counters collected during the pass.
func (s *session) logMetrics() {
	families, err := s.registry.Gather()
	if err != nil {
		s.logger.WithError(err).Warn("cannot gather metrics")
		return
	}

	for _, family := range families {
		for _, metric := range family.GetMetric() {
			fields := logrus.Fields{"metric": family.GetName(), "value": metric.GetCounter().GetValue()}
			for _, label := range metric.GetLabel() {
				fields[label.GetName()] = label.GetValue()
			}
			s.logger.WithFields(fields).Info("pass metric")
		}
	}
}

func bindPagingFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.Int("first", 0, "page forward, returning this many edges")
	flags.Int("last", 0, "page backward, returning this many edges")
	flags.String("after", "", "cursor the forward page starts after")
	flags.String("before", "", "cursor the backward page ends before")
	flags.Bool("reverse", false, "sort descending")
	flags.String("sort-key", social.DefaultSortKey, "sort key")
}

func pagingArgs(cmd *cobra.Command) gorelay.RawConnectionArgs {
	flags := cmd.Flags()
	countFlag := func(name string) *int {
		if !flags.Changed(name) {
			return nil
		}
		value, _ := flags.GetInt(name)
		return lo.ToPtr(value)
	}

	after, _ := flags.GetString("after")
	before, _ := flags.GetString("before")
	reverse, _ := flags.GetBool("reverse")
	sortKey, _ := flags.GetString("sort-key")

	return gorelay.RawConnectionArgs{
		First:   countFlag("first"),
		After:   after,
		Last:    countFlag("last"),
		Before:  before,
		Reverse: reverse,
		SortKey: sortKey,
	}
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	return enc.Encode(v)
}

func newManagersCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "managers",
		Short: "Page through the managers of one or more events within a single pass",
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := newSession(cmd)
			if err != nil {
				return err
			}
			defer s.close()

			eventIDs, _ := cmd.Flags().GetInt64Slice("event")
			if len(eventIDs) == 0 {
				return fmt.Errorf("at least one --event is required")
			}

			ctx := cmd.Context()
			args := pagingArgs(cmd)

			// Execute every connection first so the loader sees all user ids
			// before the first await.
			pages := make(map[int64]*gorelay.Deferred[*gorelay.Result], len(eventIDs))
			for _, eventID := range eventIDs {
				event, err := social.LoadNode(ctx, s.db, eventID, social.NodeTypeEvent)
				if err != nil {
					return err
				}

				pages[eventID], err = s.resolver.EventManagers(ctx, event, args)
				if err != nil {
					return err
				}
			}

			out, err := awaitAll(ctx, pages)
			if err != nil {
				return err
			}

			s.logMetrics()

			return printJSON(cmd.OutOrStdout(), out)
		},
	}
	bindPagingFlags(cmd)
	cmd.Flags().Int64Slice("event", nil, "event node id, repeatable")

	return cmd
}

func newTopicsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "topics",
		Short: "Page through topics",
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := newSession(cmd)
			if err != nil {
				return err
			}
			defer s.close()

			topicType, _ := cmd.Flags().GetString("topic-type")
			page, err := s.resolver.Topics(cmd.Context(), topicType, pagingArgs(cmd))
			if err != nil {
				return err
			}

			result, err := page.Await(cmd.Context())
			if err != nil {
				return err
			}

			s.logMetrics()

			return printJSON(cmd.OutOrStdout(), result)
		},
	}
	bindPagingFlags(cmd)
	cmd.Flags().String("topic-type", "", "only topics of this type")

	return cmd
}

func newCommentsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "comments",
		Short: "Page through the comments of a node",
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := newSession(cmd)
			if err != nil {
				return err
			}
			defer s.close()

			nodeID, _ := cmd.Flags().GetInt64("node")
			parent, err := social.LoadNode(cmd.Context(), s.db, nodeID, "")
			if err != nil {
				return err
			}

			page, err := s.resolver.Comments(cmd.Context(), parent, pagingArgs(cmd))
			if err != nil {
				return err
			}

			result, err := page.Await(cmd.Context())
			if err != nil {
				return err
			}

			s.logMetrics()

			return printJSON(cmd.OutOrStdout(), result)
		},
	}
	bindPagingFlags(cmd)
	cmd.Flags().Int64("node", 0, "parent node id")

	return cmd
}

func awaitAll[K comparable](ctx context.Context, pages map[K]*gorelay.Deferred[*gorelay.Result]) (map[K]*gorelay.Result, error) {
	out := make(map[K]*gorelay.Result, len(pages))
	for key, page := range pages {
		result, err := page.Await(ctx)
		if err != nil {
			return nil, err
		}
		out[key] = result
	}

	return out, nil
}
