package domain

// User — минимальная проекция пользователя, которую потребляет ядро:
// адрес доставки и признак администратора. Управление аккаунтами,
// сессии и аутентификация живут снаружи.
type User struct {
	ID        string
	Email     string
	FirstName string
	LastName  string
	Address   string
	IsAdmin   bool
}
