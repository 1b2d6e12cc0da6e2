package testmodels

import (
	"time"

	"github.com/uptrace/bun"
)

// Department represents a company department
type Department struct {
	ID          string    `json:"id" gorm:"primaryKey;type:string"`
	Name        string    `json:"name"`
	Code        string    `json:"code" gorm:"uniqueIndex"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Relations
	Employees []Employee `json:"employees,omitempty" gorm:"foreignKey:DepartmentID;references:ID"`
}

func (Department) TableName() string {
	return "departments"
}

// Employee represents a company employee
type Employee struct {
	ID           string    `json:"id" gorm:"primaryKey;type:string"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	Email        string    `json:"email" gorm:"uniqueIndex"`
	DepartmentID string    `json:"department_id" gorm:"type:string"`
	HireDate     time.Time `json:"hire_date"`

	// Relations
	Department *Department `json:"department,omitempty" gorm:"foreignKey:DepartmentID;references:ID"`
}

func (Employee) TableName() string {
	return "employees"
}

// Project represents a company project
type Project struct {
	ID        string    `json:"id" gorm:"primaryKey;type:string"`
	Name      string    `json:"name"`
	Code      string    `json:"code" gorm:"uniqueIndex"`
	Budget    float64   `json:"budget"`
	StartDate time.Time `json:"start_date"`
}

func (Project) TableName() string {
	return "projects"
}

// ProjectAssignment links employees to projects; its key is composite
type ProjectAssignment struct {
	ProjectID  string `json:"project_id" gorm:"primaryKey;type:string"`
	EmployeeID string `json:"employee_id" gorm:"primaryKey;type:string"`
	Role       string `json:"role"`
}

func (ProjectAssignment) TableName() string {
	return "project_assignments"
}

// Invoice is a billing document mapped with bun
type Invoice struct {
	bun.BaseModel `bun:"table:invoices"`
	ID            int64     `json:"id" bun:"id,pk,autoincrement"`
	Number        string    `json:"number" bun:"number,notnull"`
	Total         float64   `json:"total" bun:"total"`
	IssuedAt      time.Time `json:"issued_at" bun:"issued_at"`
}

// InvoiceLine is a line of an invoice; its key is composite
type InvoiceLine struct {
	bun.BaseModel `bun:"table:invoice_lines"`
	InvoiceID     int64   `json:"invoice_id" bun:"invoice_id,pk"`
	LineNo        int     `json:"line_no" bun:"line_no,pk"`
	Sku           string  `json:"sku" bun:"sku"`
	Amount        float64 `json:"amount" bun:"amount"`
}

// GormModels returns the models mapped with GORM
func GormModels() []interface{} {
	return []interface{}{
		&Department{},
		&Employee{},
		&Project{},
		&ProjectAssignment{},
	}
}

// BunModels returns the models mapped with bun
func BunModels() []interface{} {
	return []interface{}{
		(*Invoice)(nil),
		(*InvoiceLine)(nil),
	}
}
