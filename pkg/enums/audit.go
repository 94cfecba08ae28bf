package enums

// AuditAction identifies the mutation recorded by an audit entry.
type AuditAction string

const (
	AuditActionCreate      AuditAction = "CREATE"
	AuditActionUpdate      AuditAction = "UPDATE"
	AuditActionDelete      AuditAction = "DELETE"
	AuditActionUpdateStock AuditAction = "UPDATE_STOCK"
	AuditActionReduceStock AuditAction = "REDUCE_STOCK"
	AuditActionUpdatePrice AuditAction = "UPDATE_PRICE"
)

// String implements fmt.Stringer.
func (a AuditAction) String() string {
	return string(a)
}

// AuditEntity identifies the resource type an audit entry refers to.
type AuditEntity string

const (
	AuditEntityProduct AuditEntity = "product"
	AuditEntityUser    AuditEntity = "user"
)

// String implements fmt.Stringer.
func (e AuditEntity) String() string {
	return string(e)
}
