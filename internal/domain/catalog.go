package domain

// Courses lists the courses and areas income can be booked against.
var Courses = []string{
	"Sala 3",
	"Sala 4",
	"Sala 5",
	"Primer Grado",
	"Segundo Grado",
	"Tercer Grado",
	"Cuarto Grado",
	"Quinto Grado",
	"Sexto Grado",
	"Séptimo Grado",
	"1° 1° CBC",
	"1° 2° CBC",
	"2° 1° CBC",
	"3° 1° CBC",
	"3° 2° CBC",
	"4 CO",
	"5 CO",
	"General / Administrativo",
}

// ExpenseCategories lists the categories expenses can be booked against.
var ExpenseCategories = []string{
	"Gasto General",
	"Material Didáctico",
	"Mantenimiento y Reparaciones",
	"Limpieza e Higiene",
	"Servicios (Luz, Gas, Internet)",
	"Sueldos y Honorarios",
	"Insumos Administrativos",
	"Eventos y Actos",
	"Mobiliario y Equipamiento",
	"Impuestos y Tasas",
	"Otros",
}

const (
	DefaultIncomeDescription  = "Tuition payment"
	DefaultExpenseDescription = "Miscellaneous expense"
)

// DefaultCourse is the course preselected for new income.
func DefaultCourse() string {
	return Courses[0]
}

// DefaultExpenseCategory is the category preselected for new expenses.
func DefaultExpenseCategory() string {
	return ExpenseCategories[0]
}

// DefaultDescription returns the description used when none is given.
func DefaultDescription(t TransactionType) string {
	if t == TransactionTypeIncome {
		return DefaultIncomeDescription
	}
	return DefaultExpenseDescription
}
