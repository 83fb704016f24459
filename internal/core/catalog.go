package core

// Icon identifies a glyph from the icon set used by categories, goals and
// achievements. Names that are not in the table resolve to IconUnknown.
type Icon int

const (
	IconUnknown Icon = iota
	IconUtensils
	IconCar
	IconHome
	IconHeart
	IconGraduationCap
	IconGamepad
	IconShoppingBag
	IconCreditCard
	IconWallet
	IconLaptop
	IconTrendingUp
	IconPlusCircle
	IconTarget
	IconShield
	IconPlane
	IconTrophy
	IconZap
	IconCompass
	IconPiggyBank
	IconGift
	IconBriefcase
	iconCount
)

var iconNames = [iconCount]string{
	IconUnknown:       "HelpCircle",
	IconUtensils:      "UtensilsCrossed",
	IconCar:           "Car",
	IconHome:          "Home",
	IconHeart:         "Heart",
	IconGraduationCap: "GraduationCap",
	IconGamepad:       "Gamepad2",
	IconShoppingBag:   "ShoppingBag",
	IconCreditCard:    "CreditCard",
	IconWallet:        "Wallet",
	IconLaptop:        "Laptop",
	IconTrendingUp:    "TrendingUp",
	IconPlusCircle:    "PlusCircle",
	IconTarget:        "Target",
	IconShield:        "Shield",
	IconPlane:         "Plane",
	IconTrophy:        "Trophy",
	IconZap:           "Zap",
	IconCompass:       "Compass",
	IconPiggyBank:     "PiggyBank",
	IconGift:          "Gift",
	IconBriefcase:     "Briefcase",
}

var iconsByName = func() map[string]Icon {
	m := make(map[string]Icon, len(iconNames))
	for i, name := range iconNames {
		m[name] = Icon(i)
	}
	return m
}()

// ParseIcon resolves an icon name. Unknown names yield IconUnknown.
func ParseIcon(name string) Icon {
	if ic, ok := iconsByName[name]; ok {
		return ic
	}
	return IconUnknown
}

func (i Icon) String() string {
	if i < 0 || i >= iconCount {
		return iconNames[IconUnknown]
	}
	return iconNames[i]
}

func (i Icon) MarshalText() ([]byte, error) {
	return []byte(i.String()), nil
}

func (i *Icon) UnmarshalText(text []byte) error {
	*i = ParseIcon(string(text))
	return nil
}

// DefaultAccountID is the id of the account seeded in local mode.
const DefaultAccountID = "default"

// DefaultAccount is the wallet every guest ledger starts with.
func DefaultAccount() Account {
	return Account{
		ID:    DefaultAccountID,
		Name:  "Carteira Offline",
		Type:  AccountCash,
		Color: "#8B5CF6",
	}
}

var builtinCategories = []Category{
	{ID: "1", Name: "Alimentação", Icon: IconUtensils, Color: "hsl(38 92% 50%)", Type: Expense},
	{ID: "2", Name: "Transporte", Icon: IconCar, Color: "hsl(199 89% 48%)", Type: Expense},
	{ID: "3", Name: "Moradia", Icon: IconHome, Color: "hsl(280 65% 60%)", Type: Expense},
	{ID: "4", Name: "Saúde", Icon: IconHeart, Color: "hsl(0 84% 60%)", Type: Expense},
	{ID: "5", Name: "Educação", Icon: IconGraduationCap, Color: "hsl(152 69% 31%)", Type: Expense},
	{ID: "6", Name: "Lazer", Icon: IconGamepad, Color: "hsl(280 100% 70%)", Type: Expense},
	{ID: "7", Name: "Compras", Icon: IconShoppingBag, Color: "hsl(340 82% 52%)", Type: Expense},
	{ID: "8", Name: "Assinaturas", Icon: IconCreditCard, Color: "hsl(215 20% 65%)", Type: Expense},
	{ID: "9", Name: "Salário", Icon: IconWallet, Color: "hsl(152 69% 31%)", Type: Income},
	{ID: "10", Name: "Freelance", Icon: IconLaptop, Color: "hsl(199 89% 48%)", Type: Income},
	{ID: "11", Name: "Investimentos", Icon: IconTrendingUp, Color: "hsl(38 92% 50%)", Type: Income},
	{ID: "12", Name: "Outros", Icon: IconPlusCircle, Color: "hsl(215 16% 47%)", Type: Income},
}

// BuiltinCategories returns a copy of the fixed category catalog.
func BuiltinCategories() []Category {
	out := make([]Category, len(builtinCategories))
	copy(out, builtinCategories)
	return out
}

// IsBuiltinCategory reports whether id belongs to the fixed catalog.
func IsBuiltinCategory(id string) bool {
	for _, c := range builtinCategories {
		if c.ID == id {
			return true
		}
	}
	return false
}

// FindCategory returns the category with the given id.
func FindCategory(categories []Category, id string) (Category, bool) {
	for _, c := range categories {
		if c.ID == id {
			return c, true
		}
	}
	return Category{}, false
}
