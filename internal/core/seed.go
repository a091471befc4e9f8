package core

// DefaultCategories is the seed list upserted on every start. Entries are
// matched on name and type.
func DefaultCategories() []Category {
	return []Category{
		{Name: "Supermercado", Type: Expense, Color: "#22c55e", Icon: "shopping-cart", IsDefault: true},
		{Name: "Comida", Type: Expense, Color: "#f97316", Icon: "utensils", IsDefault: true},
		{Name: "Transporte", Type: Expense, Color: "#3b82f6", Icon: "bus", IsDefault: true},
		{Name: "Servicios", Type: Expense, Color: "#eab308", Icon: "bolt", IsDefault: true},
		{Name: "Alquiler", Type: Expense, Color: "#a855f7", Icon: "home", IsDefault: true},
		{Name: "Salud", Type: Expense, Color: "#ef4444", Icon: "heart-pulse", IsDefault: true},
		{Name: "Entretenimiento", Type: Expense, Color: "#ec4899", Icon: "film", IsDefault: true},
		{Name: "Otros gastos", Type: Expense, Color: "#64748b", Icon: "tag", IsDefault: true},
		{Name: "Sueldo", Type: Income, Color: "#16a34a", Icon: "briefcase", IsDefault: true},
		{Name: "Freelance", Type: Income, Color: "#0ea5e9", Icon: "laptop", IsDefault: true},
		{Name: "Inversiones", Type: Income, Color: "#14b8a6", Icon: "trending-up", IsDefault: true},
		{Name: "Otros ingresos", Type: Income, Color: "#84cc16", Icon: "badge-dollar", IsDefault: true},
	}
}
