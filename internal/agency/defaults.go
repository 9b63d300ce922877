package agency

// Cadastro padrão utilizado quando AGENCIES_FILE não é informado.
var defaultAgencies = []Agency{
	{
		ID:          "orgao-prefeitura",
		Name:        "Prefeitura Municipal — Atendimento ao Cidadão",
		Address:     "Praça da Matriz, 100, Centro",
		Phone:       "(83) 3101-1000",
		Email:       "atendimento@prefeitura.gov.br",
		Description: "Balcão central de serviços da Prefeitura",
		Services:    []string{"Cadastro imobiliário", "Alvará de funcionamento", "Certidões negativas", "Protocolo geral"},
		OpensAt:     "07:30",
		ClosesAt:    "17:00",
		WorkingDays: []int{1, 2, 3, 4, 5},
	},
	{
		ID:          "orgao-fazenda",
		Name:        "Secretaria de Fazenda",
		Address:     "Rua do Comércio, 45, Centro",
		Phone:       "(83) 3101-1010",
		Email:       "fazenda@prefeitura.gov.br",
		Description: "Tributos municipais e parcelamentos",
		Services:    []string{"IPTU", "ISS", "Parcelamento de débitos", "Nota fiscal avulsa"},
		OpensAt:     "07:30",
		ClosesAt:    "16:30",
		WorkingDays: []int{1, 2, 3, 4, 5},
	},
	{
		ID:          "orgao-assistencia",
		Name:        "Secretaria de Assistência Social",
		Address:     "Av. das Flores, 220",
		Phone:       "(83) 3101-1020",
		Email:       "assistencia@prefeitura.gov.br",
		Description: "Programas sociais e cadastro único",
		Services:    []string{"Cadastro Único", "Bolsa Família", "Benefício eventual", "Atendimento psicossocial"},
		OpensAt:     "08:00",
		ClosesAt:    "17:00",
		WorkingDays: []int{1, 2, 3, 4, 5},
	},
	{
		ID:          "orgao-saude",
		Name:        "Secretaria de Saúde — Regulação",
		Address:     "Rua da Saúde, 12",
		Phone:       "(83) 3101-1030",
		Email:       "saude@prefeitura.gov.br",
		Description: "Marcação de exames e regulação de vagas",
		Services:    []string{"Marcação de exames", "TFD", "Cartão SUS", "Ouvidoria da saúde"},
		OpensAt:     "07:30",
		ClosesAt:    "17:00",
		WorkingDays: []int{1, 2, 3, 4, 5},
	},
	{
		ID:          "orgao-tributos",
		Name:        "Procon Municipal",
		Address:     "Rua Direita, 301",
		Phone:       "(83) 3101-1040",
		Email:       "procon@prefeitura.gov.br",
		Description: "Defesa do consumidor",
		Services:    []string{"Reclamação de consumo", "Audiência de conciliação", "Orientação ao consumidor"},
		OpensAt:     "07:30",
		ClosesAt:    "16:30",
		WorkingDays: []int{1, 2, 3, 4, 5},
	},
	{
		ID:          "orgao-identificacao",
		Name:        "Posto de Identificação Civil",
		Address:     "Rua Nova, 77",
		Phone:       "(83) 3101-1050",
		Email:       "identificacao@prefeitura.gov.br",
		Description: "Emissão de documentos de identificação",
		Services:    []string{"Carteira de identidade", "Segunda via de RG", "Atualização cadastral"},
		OpensAt:     "07:00",
		ClosesAt:    "17:00",
		WorkingDays: []int{1, 2, 3, 4, 5, 6},
	},
}
