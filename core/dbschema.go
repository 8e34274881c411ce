package core

import (
	"github.com/lib/pq"
	"time"
)

// PolicyRow is the relational form of a Policy. Conditions, constraints
// and obligations are stored as JSON documents.
type PolicyRow struct {
	ID          string    `json:"id" gorm:"primaryKey;type:text"`
	TenantID    string    `json:"tenantId" gorm:"type:text;index"`
	Description string    `json:"description" gorm:"type:text"`
	Enabled     bool      `json:"enabled" gorm:"type:boolean;default:true"`
	Priority    int       `json:"priority" gorm:"type:integer;default:0"`
	Effect      string    `json:"effect" gorm:"type:text"`
	Conditions  string    `json:"conditions" gorm:"type:json"`
	Constraints *string   `json:"constraints,omitempty" gorm:"type:json;default:null"`
	Obligations *string   `json:"obligations,omitempty" gorm:"type:json;default:null"`
	CDate       time.Time `json:"cdate" gorm:"->;<-:create;autoCreateTime"`
	MDate       time.Time `json:"mdate" gorm:"autoUpdateTime"`
}

func (PolicyRow) TableName() string {
	return "policies"
}

// Organization is a hierarchy root node
type Organization struct {
	ID          string         `json:"id" gorm:"primaryKey;type:text"`
	TenantID    string         `json:"tenantId" gorm:"type:text;index"`
	Name        string         `json:"name" gorm:"type:text"`
	ParentID    *string        `json:"parentId,omitempty" gorm:"type:text;default:null"`
	Permissions pq.StringArray `json:"permissions" gorm:"type:text[]"`
	CDate       time.Time      `json:"cdate" gorm:"->;<-:create;autoCreateTime"`
	MDate       time.Time      `json:"mdate" gorm:"autoUpdateTime"`
}

type Team struct {
	ID          string         `json:"id" gorm:"primaryKey;type:text"`
	TenantID    string         `json:"tenantId" gorm:"type:text;index"`
	Name        string         `json:"name" gorm:"type:text"`
	ParentID    *string        `json:"parentId,omitempty" gorm:"type:text;default:null"`
	Permissions pq.StringArray `json:"permissions" gorm:"type:text[]"`
	CDate       time.Time      `json:"cdate" gorm:"->;<-:create;autoCreateTime"`
	MDate       time.Time      `json:"mdate" gorm:"autoUpdateTime"`
}

type Group struct {
	ID          string         `json:"id" gorm:"primaryKey;type:text"`
	TenantID    string         `json:"tenantId" gorm:"type:text;index"`
	Name        string         `json:"name" gorm:"type:text"`
	ParentID    *string        `json:"parentId,omitempty" gorm:"type:text;default:null"`
	Permissions pq.StringArray `json:"permissions" gorm:"type:text[]"`
	CDate       time.Time      `json:"cdate" gorm:"->;<-:create;autoCreateTime"`
	MDate       time.Time      `json:"mdate" gorm:"autoUpdateTime"`
}

type Role struct {
	ID          string         `json:"id" gorm:"primaryKey;type:text"`
	TenantID    string         `json:"tenantId" gorm:"type:text;index"`
	Name        string         `json:"name" gorm:"type:text"`
	ParentID    *string        `json:"parentId,omitempty" gorm:"type:text;default:null"`
	Permissions pq.StringArray `json:"permissions" gorm:"type:text[]"`
	CDate       time.Time      `json:"cdate" gorm:"->;<-:create;autoCreateTime"`
	MDate       time.Time      `json:"mdate" gorm:"autoUpdateTime"`
}

// UserMembership binds a user to an organization, team, group or role.
// Expired rows are ignored by the resolver.
type UserMembership struct {
	ID          uint           `json:"id" gorm:"primaryKey;auto_increment"`
	TenantID    string         `json:"tenantId" gorm:"type:text;index;uniqueIndex:uniq_membership"`
	UserID      string         `json:"userId" gorm:"type:text;index;uniqueIndex:uniq_membership"`
	EntityType  string         `json:"entityType" gorm:"type:text;uniqueIndex:uniq_membership"`
	EntityID    string         `json:"entityId" gorm:"type:text;uniqueIndex:uniq_membership"`
	Role        string         `json:"role" gorm:"type:text"`
	Permissions pq.StringArray `json:"permissions" gorm:"type:text[]"`
	ExpiresAt   *time.Time     `json:"expiresAt,omitempty" gorm:"type:timestamp with time zone;default:null"`
	CDate       time.Time      `json:"cdate" gorm:"->;<-:create;autoCreateTime"`
}

// AuditLog is one decision row. The database sink keeps audit_logs
// range-partitioned by month where the table is created through it.
type AuditLog struct {
	ID              string         `json:"id" gorm:"primaryKey;type:char(20)"`
	Timestamp       time.Time      `json:"timestamp" gorm:"type:timestamp with time zone;not null;index"`
	TenantID        string         `json:"tenantId" gorm:"type:text;index"`
	SubjectID       string         `json:"subjectId" gorm:"type:text;index"`
	SubjectType     string         `json:"subjectType" gorm:"type:text"`
	ResourceType    string         `json:"resourceType" gorm:"type:text;index"`
	ResourceID      string         `json:"resourceId" gorm:"type:text"`
	Action          string         `json:"action" gorm:"type:text"`
	Allowed         bool           `json:"allowed" gorm:"type:boolean"`
	Reason          string         `json:"reason" gorm:"type:text"`
	MatchedPolicies pq.StringArray `json:"matchedPolicies" gorm:"type:text[]"`
	DurationUS      int64          `json:"durationUS" gorm:"type:bigint;default:0"`
	FromCache       bool           `json:"fromCache" gorm:"type:boolean;default:false"`
	Entry           string         `json:"entry" gorm:"type:json"`
}

// AuthCacheEntry backs the database cache provider
type AuthCacheEntry struct {
	CacheKey  string    `json:"cacheKey" gorm:"primaryKey;type:text"`
	TenantID  string    `json:"tenantId" gorm:"type:text;index"`
	Result    string    `json:"result" gorm:"type:json"`
	ExpiresAt time.Time `json:"expiresAt" gorm:"type:timestamp with time zone;index"`
}

func (AuthCacheEntry) TableName() string {
	return "auth_cache"
}

// Schemas is the AutoMigrate list
func Schemas() []any {
	return []any{
		&PolicyRow{},
		&Organization{},
		&Team{},
		&Group{},
		&Role{},
		&UserMembership{},
		&AuditLog{},
		&AuthCacheEntry{},
	}
}
