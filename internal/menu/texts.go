package menu

// Button labels and commands.
const (
	CmdSettings = "/settings"

	LabelHideText     = "Настройка скрытия текста"
	LabelProfiles     = "Настройка профилей"
	LabelEditMessages = "Настройка списка напоминаний"
	LabelEditInterval = "Настройка временного интервала"
	LabelBack         = "Назад"
	LabelCancel       = "Отмена"
	LabelExit         = "Закрыть настройки"
	LabelYes          = "Да"
	LabelNo           = "Нет"
)

// Prompts and error texts.
const (
	textClosed          = "Выход из настроек. Для того чтобы снова открыть это меню, отправь " + CmdSettings
	textClosedHint      = "Некорректный ввод. Для входа в настройки отправь " + CmdSettings
	textMain            = "Настройки"
	textHideTextFmt     = "Скрывать текст сообщений? Текущее состояние: %s"
	textSelector        = "Выбери профиль напоминаний для настройки"
	textIncorrectChoice = "Некорректный ввод. Выбери из списка:"

	textProfileFmt = "Настраиваем профиль %s.\n" +
		"Список напоминаний: %s\n" +
		"Временной интервал между напоминаниями:\n" +
		"От %s до %s\n" +
		"Выбери настройку из списка:"

	textEditMessagesFmt = "Настраиваем список напоминаний в профиле %s.\n" +
		"Отправь новый список сообщений, разделенных точкой с запятой, без пробелов между напоминаниями.\n" +
		"В списке должно быть как минимум одно напоминание.\n" +
		"Текущий список:\n" +
		"%s"

	textEditIntervalFmt = "Настраиваем временной интервал между напоминаниями в профиле %s.\n" +
		"Отправь новый интервал в минутах, два числа разделенных пробелом.\n" +
		"Формат: \"min_time max_time\".\n" +
		"Текущее значение: %d %d"

	textBadMessages       = "Некорректный ввод. Отправь новый список напоминаний или нажми '" + LabelCancel + "'"
	textBadIntervalFormat = "Некорректный ввод. Отправь новый интервал или нажми '" + LabelCancel + "'"

	textBadIntervalOrder = "Некорректный ввод. min_time должно быть меньше чем max_time.\n" +
		"Отправь новый интервал или нажми '" + LabelCancel + "'"

	textBadIntervalSign = "Некорректный ввод. min_time и max_time должны быть больше 0.\n" +
		"Отправь новый интервал или нажми '" + LabelCancel + "'"

	textBadIntervalRange = "Некорректный ввод. Интервал слишком большой, max_time не больше 153722867 минут.\n" +
		"Отправь новый интервал или нажми '" + LabelCancel + "'"
)
