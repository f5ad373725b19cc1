// Package catalog holds the static reference data for the portal: the tech
// stacks the site teaches and the district -> company directory. It is the
// single source of truth for the identifiers used as storage path segments.
package catalog

type Stack struct {
	ID    string
	Label string
}

type Company struct {
	ID      string
	Name    string
	Address string
	Stacks  []string
}

var stacks = []Stack{
	{ID: "java", Label: "Java"},
	{ID: "cpp", Label: "C / C++"},
	{ID: "js", Label: "JavaScript"},
	{ID: "react", Label: "React"},
	{ID: "python", Label: "Python"},
	{ID: "html-css", Label: "HTML & CSS"},
}

// districts keeps the presentation order stable; the map alone would not.
var districts = []string{"Colombo", "Jaffna", "Kandy", "Galle"}

var companiesByDistrict = map[string][]Company{
	"Colombo": {
		{ID: "wso2", Name: "WSO2", Address: "20, Palm Grove, Colombo 03", Stacks: []string{"java", "node", "js"}},
		{ID: "virtusa", Name: "Virtusa", Address: "752, Dr Danister De Silva Mawatha, Colombo 09", Stacks: []string{"java", "react", "node"}},
		{ID: "syscolabs", Name: "Sysco LABS", Address: "55A, Dharmapala Mawatha, Colombo 03", Stacks: []string{"java", "react", "node", "python"}},
		{ID: "ifs", Name: "IFS", Address: "Orion Towers 1, Dr Danister De Silva Mawatha, Colombo 09", Stacks: []string{"java", "cpp"}},
		{ID: "ninetyninex", Name: "99X", Address: "Nawam Mawatha, Colombo 02", Stacks: []string{"react", "node", "js"}},
		{ID: "hsenid", Name: "hSenid", Address: "No. 32, Castle Street, Colombo 08", Stacks: []string{"java", "js"}},
	},
	"Jaffna": {
		{ID: "loncey", Name: "Loncey Tech (Pvt) Ltd", Address: "259 Temple Rd, Jaffna 40000", Stacks: []string{"react", "node", "python"}},
		{ID: "speedit", Name: "Speed IT Net", Address: "Jaffna", Stacks: []string{"js", "react-native", "node"}},
		{ID: "appslanka", Name: "Apps Lanka Software Solutions", Address: "No.40 Palaly Road, Jaffna", Stacks: []string{"react-native", "js", "node"}},
		{ID: "3axislabs", Name: "3axislabs", Address: "Jaffna", Stacks: []string{"react", "node", "python"}},
		{ID: "technovate", Name: "Technovate", Address: "Jaffna", Stacks: []string{"js", "html-css"}},
	},
	"Kandy": {
		{ID: "glenzsoft", Name: "Glenzsoft", Address: "255/21, Dr C D L Fernando Mawatha, Kandy", Stacks: []string{"react", "node", "js"}},
		{ID: "splendorport", Name: "SplendorPort", Address: "Kandy", Stacks: []string{"react", "js", "html-css"}},
		{ID: "kitsweb", Name: "Kits Web Creations", Address: "Kandy", Stacks: []string{"js", "html-css"}},
		{ID: "ontech", Name: "Ontech IT Solutions", Address: "Kandy", Stacks: []string{"java", "js"}},
	},
	"Galle": {
		{ID: "sanmark", Name: "Sanmark Solutions", Address: "Galle", Stacks: []string{"react", "node", "php"}},
		{ID: "jetapp", Name: "Jetapp", Address: "Galle", Stacks: []string{"react-native", "node", "js"}},
		{ID: "galleit", Name: "Galle IT Solutions", Address: "34 Talbot Town, Galle", Stacks: []string{"js", "html-css"}},
		{ID: "webnifix", Name: "Webnifix", Address: "Galle", Stacks: []string{"js", "react", "html-css"}},
	},
}

func Stacks() []Stack {
	out := make([]Stack, len(stacks))
	copy(out, stacks)
	return out
}

func StackByID(id string) (Stack, bool) {
	for _, s := range stacks {
		if s.ID == id {
			return s, true
		}
	}
	return Stack{}, false
}

func Districts() []string {
	out := make([]string, len(districts))
	copy(out, districts)
	return out
}

func CompaniesIn(district string) []Company {
	companies := companiesByDistrict[district]
	out := make([]Company, len(companies))
	copy(out, companies)
	return out
}

// CompanyByID looks a company up within a district. Company ids are stable
// slugs reused as storage path segments.
func CompanyByID(district, id string) (Company, bool) {
	for _, c := range companiesByDistrict[district] {
		if c.ID == id {
			return c, true
		}
	}
	return Company{}, false
}
