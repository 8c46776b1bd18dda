// Package watermark удаляет водяные знаки со страниц классической обработкой
// изображений.
//
// Маска строится из зон страницы, порога яркости и карты контуров, по
// желанию объединяется с маской из файла. Отмеченные пиксели заливают
// несколько кандидатов; остается тот, что меньше всех изменил страницу вне
// маски, и он слегка сглаживается. Все операции идут через OpenCV (gocv) и
// детерминированы для заданного изображения и конфигурации.
package watermark
