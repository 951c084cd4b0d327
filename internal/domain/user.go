package domain

import "time"

// User representa a entidade do usuário no sistema.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // Oculta o hash da senha no JSON de resposta
	FullName     string    `json:"full_name,omitempty"`
	Role         UserRole  `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// UserRole é um tipo string para representar o papel do usuário no sistema.
type UserRole string

// Constantes para os papéis de usuário
const (
	RoleAdmin UserRole = "admin"
	RoleUser  UserRole = "user"
	RoleGuest UserRole = "guest"
)

// Actor é o principal autenticado que executa uma operação, fornecido pelo
// middleware de autenticação. O núcleo confia nestes dados como recebidos.
type Actor struct {
	ID   string
	Role UserRole
}

// IsAdmin indica se o ator tem papel de administrador.
func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// UserRegistration representa o payload de entrada para o registro.
type UserRegistration struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name,omitempty"`
}

// UserAddress é um endereço salvo no perfil do usuário.
type UserAddress struct {
	ID     string `json:"id"`
	UserID string `json:"user_id"`
	Label  string `json:"label,omitempty"` // e.g. "casa", "trabalho"
	Address
}
