package model

import (
	"sync"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

var (
	idNode     *snowflake.Node
	idNodeOnce sync.Once
)

// InitIDGenerator 设置雪花算法节点号，必须在首次写入前调用
func InitIDGenerator(nodeID int64) error {
	node, err := snowflake.NewNode(nodeID)
	if err != nil {
		return err
	}
	idNode = node
	return nil
}

func nextID() int64 {
	idNodeOnce.Do(func() {
		if idNode == nil {
			idNode, _ = snowflake.NewNode(1)
		}
	})
	return idNode.Generate().Int64()
}

// swagger:model
type SnowflakeBase struct {
	ID        int64     `gorm:"primaryKey;autoIncrement:false" json:"id,string"`
	CreatedAt time.Time `gorm:"index" json:"createdAt"`
}

func (b *SnowflakeBase) BeforeCreate(tx *gorm.DB) (err error) {
	if b.ID == 0 {
		b.ID = nextID()
	}
	return
}
