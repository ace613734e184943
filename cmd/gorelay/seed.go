package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Alp4ka/gorelay/social"
)

func newSeedCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Create the tables and insert a demo data set",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			logger := newLogger(cfg)
			db, err := openDatabase(cfg, logger)
			if err != nil {
				return err
			}
			defer func() {
				if err := closeDatabase(db); err != nil {
					logger.WithError(err).Warn("cannot close database")
				}
			}()

			if err = social.Migrate(db); err != nil {
				return fmt.Errorf("cannot migrate: %w", err)
			}

			if err = seed(db); err != nil {
				return fmt.Errorf("cannot seed: %w", err)
			}

			logger.Info("demo data seeded")

			return nil
		},
	}
}

func seed(db *gorm.DB) error {
	users := []social.User{
		{UID: 1, Name: "ada", Created: 100},
		{UID: 2, Name: "grace", Created: 300},
		{UID: 3, Name: "edsger", Created: 200},
		{UID: 4, Name: "barbara", Created: 200},
		{UID: 5, Name: "donald", Created: 500},
		{UID: 6, Name: "frances", Created: 600},
	}

	nodes := []social.Node{
		{NID: 10, VID: 11, Type: social.NodeTypeEvent, Title: "Meetup", UID: 1, Created: 1000},
		{NID: 20, VID: 21, Type: social.NodeTypeEvent, Title: "Hackathon", UID: 2, Created: 1100},
		{NID: 30, VID: 30, Type: social.NodeTypeTopic, Title: "Welcome", TopicType: "news", UID: 1, Created: 1200},
		{NID: 31, VID: 31, Type: social.NodeTypeTopic, Title: "Agenda", TopicType: "blog", UID: 3, Created: 1300},
		{NID: 32, VID: 32, Type: social.NodeTypeTopic, Title: "Recap", TopicType: "news", UID: 2, Created: 1300},
	}

	managers := []social.EventManager{
		{EventID: 10, RevisionID: 11, UserID: 1},
		{EventID: 10, RevisionID: 11, UserID: 2},
		{EventID: 10, RevisionID: 11, UserID: 3},
		{EventID: 20, RevisionID: 21, UserID: 3},
		{EventID: 20, RevisionID: 21, UserID: 4},
		{EventID: 20, RevisionID: 21, UserID: 5},
	}

	comments := []social.Comment{
		{CID: 100, NodeID: 30, UID: 2, Body: "first", Created: 1250},
		{CID: 101, NodeID: 30, UID: 4, Body: "hello", Created: 1260},
		{CID: 102, NodeID: 31, UID: 5, Body: "see you", Created: 1350},
	}

	return db.Transaction(func(tx *gorm.DB) error {
		for _, rows := range []any{&users, &nodes, &managers, &comments} {
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(rows).Error; err != nil {
				return err
			}
		}

		return nil
	})
}
