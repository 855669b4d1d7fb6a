package risk

import (
	"regexp"

	"github.com/joseph-ayodele/legal-intake/constants"
)

type marker struct {
	term     string
	category constants.Category
	weight   int
	severity constants.Level
}

// markers are matched as lowercase substrings, so stems are used.
var markers = []marker{
	{"неустойк", constants.CategoryContract, 14, constants.LevelHigh},
	{"штраф", constants.CategoryContract, 12, constants.LevelHigh},
	{"гк рф", constants.CategoryLaw, 8, constants.LevelMedium},
	{"апк рф", constants.CategoryLitigation, 10, constants.LevelMedium},
	{"суд", constants.CategoryLitigation, 14, constants.LevelHigh},
	{"арбитраж", constants.CategoryLitigation, 13, constants.LevelHigh},
	{"иск", constants.CategoryLitigation, 10, constants.LevelHigh},
	{"претенз", constants.CategoryPretrial, 10, constants.LevelMedium},
	{"досудеб", constants.CategoryPretrial, 9, constants.LevelMedium},
	{"расторжен", constants.CategoryContract, 9, constants.LevelMedium},
	{"просроч", constants.CategoryDeadlines, 12, constants.LevelHigh},
	{"срок", constants.CategoryDeadlines, 7, constants.LevelMedium},
	{"задолж", constants.CategoryDebt, 12, constants.LevelHigh},
	{"акт сверки", constants.CategoryEvidence, 9, constants.LevelMedium},
	{"упд", constants.CategoryEvidence, 8, constants.LevelMedium},
	{"фссп", constants.CategoryEnforcement, 10, constants.LevelMedium},
	{"исполнительн", constants.CategoryEnforcement, 10, constants.LevelMedium},
	{"конфиденц", constants.CategoryCompliance, 9, constants.LevelMedium},
	{"персональ", constants.CategoryCompliance, 11, constants.LevelHigh},
	{"152-фз", constants.CategoryCompliance, 11, constants.LevelHigh},
	{"роскомнадзор", constants.CategoryAuthorities, 11, constants.LevelHigh},
	{"фнс", constants.CategoryAuthorities, 10, constants.LevelMedium},
	{"проверк", constants.CategoryAuthorities, 8, constants.LevelMedium},
	{"должен", constants.CategoryObligations, 6, constants.LevelMedium},
	{"обязан", constants.CategoryObligations, 6, constants.LevelMedium},
}

var obligationHints = []string{
	"обязан",
	"должен",
	"срок",
	"оплат",
	"передать",
	"подписать",
	"предоставить",
	"акт сверки",
	"упд",
	"претензи",
	"ответ в течение",
	"оригинал",
}

var (
	highPressureSignals = []string{"срочно", "сегодня", "до конца дня", "блокир", "штраф", "претензия"}
	relationSignals     = []string{"договорились", "устно", "по звонку", "телеграм", "whatsapp"}
)

const (
	highPressureWeight = 2
	relationWeight     = 1
	maxCulturalLoad    = 10
)

// Clock times, dd.mm.yy(yy) dates and "в течение N рабочих/календарных дн".
// "до <date>" is covered by the date alternative.
var reTimeline = regexp.MustCompile(`(?i)(?:\b\d{1,2}:\d{2}\b|\b\d{1,2}[./-]\d{1,2}[./-]\d{2,4}\b|(?:^|[^\p{L}])в\s+течение\s+\d+\s+(?:рабочих|календарных)\s+дн)`)

var actionByCategory = map[constants.Category]string{
	constants.CategoryContract:    "Сверить предмет, сроки, ответственность и порядок расторжения по договору и допсоглашениям.",
	constants.CategoryLitigation:  "Проверить подсудность, процессуальные сроки и собрать комплект доказательств под АПК РФ.",
	constants.CategoryPretrial:    "Подготовить и направить претензию с расчетом требований и подтверждением вручения (ЭДО/почта).",
	constants.CategoryDeadlines:   "Зафиксировать критические даты и назначить владельца каждого дедлайна с ежедневным контролем.",
	constants.CategoryDebt:        "Собрать акт сверки, первичку и платежный график; предложить сценарий досудебного погашения.",
	constants.CategoryObligations: "Проверить исполнение обязательств по этапам и закрепить это письменно в переписке.",
	constants.CategoryCompliance:  "Провести экспресс-аудит по ПДн/конфиденциальности и подготовить пакет для возможной проверки.",
	constants.CategoryAuthorities: "Подготовить ответ в госорган с ответственным, сроком и пакетом подтверждающих документов.",
	constants.CategoryEvidence:    "Собрать доказательственную папку: договор, УПД, акты, переписка, счета и реестр приложений.",
	constants.CategoryEnforcement: "Проверить стадию исполнительного производства и план взыскания через ФССП.",
	constants.CategoryLaw:         "Подобрать релевантные нормы ГК РФ/АПК РФ и привязать их к фактам кейса.",
}

const (
	escalationAction = "В течение 24 часов: провести с собственником короткую риск-сессию, согласовать позицию и запретить противоречивые комментарии."
	fallbackAction   = "Сформировать краткий юрбриф: факты, спорные точки, ближайшие сроки, ответственные и канал коммуникации."
)
