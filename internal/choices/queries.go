package choices

// Static choices for a (model, field) pair. NULL ordernum sorts last under
// ascending order, matching the in-memory repositories.
const queryListChoices = `
SELECT id, model, field, value, display, COALESCE(icon, ''), ordernum
FROM choices
WHERE model = $1 AND field = $2
ORDER BY ordernum, lower(display)`

const queryGetDynamicChoice = `
SELECT id, model_name, criteria, value_col, display_col
FROM dynamic_choices
WHERE id = $1`

const queryListLookupValues = `
SELECT id, name, ordernum
FROM lookup_values
WHERE list_name = $1
ORDER BY ordernum, lower(name)`
