package social

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/Alp4ka/gorelay"
)

// Entity kinds served by the social connections.
const (
	KindUser    = "user"
	KindNode    = "node"
	KindComment = "comment"
)

// Node types.
const (
	NodeTypeEvent = "event"
	NodeTypeTopic = "topic"
)

// User is a platform account.
type User struct {
	UID     int64  `gorm:"column:uid;primaryKey" json:"uid"`
	Name    string `gorm:"column:name;not null" json:"name"`
	Created int64  `gorm:"column:created;index" json:"created"`
}

func (User) TableName() string { return "users" }

func (u *User) EntityID() gorelay.ID { return u.UID }

// Node is a content entity: an event or a topic. VID is the loaded revision.
type Node struct {
	NID       int64  `gorm:"column:nid;primaryKey" json:"nid"`
	VID       int64  `gorm:"column:vid;not null" json:"vid"`
	Type      string `gorm:"column:type;not null;index" json:"type"`
	Title     string `gorm:"column:title;not null" json:"title"`
	TopicType string `gorm:"column:topic_type" json:"topicType,omitempty"`
	UID       int64  `gorm:"column:uid" json:"uid"`
	Created   int64  `gorm:"column:created;index" json:"created"`
}

func (Node) TableName() string { return "nodes" }

func (n *Node) EntityID() gorelay.ID { return n.NID }

// EventManager links a user to an event revision as one of its managers.
type EventManager struct {
	EventID    int64 `gorm:"column:event_id;primaryKey"`
	RevisionID int64 `gorm:"column:revision_id;primaryKey"`
	UserID     int64 `gorm:"column:user_id;primaryKey"`
}

func (EventManager) TableName() string { return "event_managers" }

// Comment is a comment posted on a node.
type Comment struct {
	CID     int64  `gorm:"column:cid;primaryKey" json:"cid"`
	NodeID  int64  `gorm:"column:entity_id;index" json:"nodeId"`
	UID     int64  `gorm:"column:uid" json:"uid"`
	Body    string `gorm:"column:body" json:"body"`
	Created int64  `gorm:"column:created;index" json:"created"`
}

func (Comment) TableName() string { return "comments" }

func (c *Comment) EntityID() gorelay.ID { return c.CID }

// Migrate creates or updates the tables of the social models.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&User{}, &Node{}, &EventManager{}, &Comment{})
}

// RegisterKinds maps the social entity kinds onto their models.
func RegisterKinds(store *gorelay.GORMStore) *gorelay.GORMStore {
	gorelay.RegisterKind[User](store, KindUser, "uid")
	gorelay.RegisterKind[Node](store, KindNode, "nid")
	gorelay.RegisterKind[Comment](store, KindComment, "cid")

	return store
}

// LoadNode loads a node by id, checking its type when nodeType is not empty.
func LoadNode(ctx context.Context, db *gorm.DB, nid int64, nodeType string) (*Node, error) {
	var node Node
	if err := db.WithContext(ctx).First(&node, "nid = ?", nid).Error; err != nil {
		return nil, fmt.Errorf("cannot load node %d: %w", nid, err)
	}

	if nodeType != "" && node.Type != nodeType {
		return nil, fmt.Errorf("node %d is a '%s', not a '%s'", nid, node.Type, nodeType)
	}

	return &node, nil
}
