package models

type Role string

const (
	RoleOperator Role = "operator"
	RoleAdmin    Role = "admin"
)

// Operator is a Telegram chat allowed to register attendance.
type Operator struct {
	ID        uint   `gorm:"primarykey" json:"id"`
	CreatedAt int64  `json:"created_at"`
	UpdatedAt int64  `json:"updated_at"`
	ChatID    int64  `gorm:"uniqueIndex;not null" json:"chat_id"`
	Username  string `json:"username"`
	Name      string `gorm:"not null" json:"name"`
	Role      Role   `gorm:"type:varchar(16);default:'operator'" json:"role"`
}

func (o *Operator) IsAdmin() bool {
	return o.Role == RoleAdmin
}

func (Operator) TableName() string {
	return "operators"
}

func (o *Operator) IsValid() bool {
	return o.ChatID != 0 && o.Name != "" && (o.Role == RoleOperator || o.Role == RoleAdmin)
}
